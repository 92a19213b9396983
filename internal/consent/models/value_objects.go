package models

// Level is a visitor's consent tier. Levels are totally ordered by privacy
// scope; a stronger level satisfies every weaker requirement.
type Level string

const (
	LevelNone       Level = "none"
	LevelEssential  Level = "essential"
	LevelFunctional Level = "functional"
	LevelAnalytics  Level = "analytics"
	LevelMarketing  Level = "marketing"
	LevelFull       Level = "full"
)

// levelOrder is the single source of truth for the consent hierarchy,
// weakest to strongest.
var levelOrder = []Level{
	LevelNone,
	LevelEssential,
	LevelFunctional,
	LevelAnalytics,
	LevelMarketing,
	LevelFull,
}

// Index returns the position of the level in the hierarchy, or -1 for
// unknown levels so they never satisfy any requirement.
func (l Level) Index() int {
	for i, level := range levelOrder {
		if level == l {
			return i
		}
	}
	return -1
}

// IsValid checks if the level is one of the supported enum values.
func (l Level) IsValid() bool {
	return l.Index() >= 0
}

// HasLevel reports whether current satisfies required. Unknown levels on
// either side never satisfy anything.
func HasLevel(current, required Level) bool {
	ci, ri := current.Index(), required.Index()
	if ci < 0 || ri < 0 {
		return false
	}
	return ci >= ri
}

// Flag names a granular permission derived from the level or overridden
// explicitly. FlagEssential is always true, including for withdrawn records.
type Flag string

const (
	FlagEssential       Flag = "essential"
	FlagFunctional      Flag = "functional"
	FlagAnalytics       Flag = "analytics"
	FlagPerformance     Flag = "performance"
	FlagMarketing       Flag = "marketing"
	FlagPersonalization Flag = "personalization"
	FlagThirdParty      Flag = "thirdParty"
)

// AllFlags lists every granular permission in declaration order.
var AllFlags = []Flag{
	FlagEssential,
	FlagFunctional,
	FlagAnalytics,
	FlagPerformance,
	FlagMarketing,
	FlagPersonalization,
	FlagThirdParty,
}

// DefaultFlags maps a level to its granular permission set. Essential is
// always true, for every level including none.
func DefaultFlags(level Level) map[Flag]bool {
	flags := map[Flag]bool{
		FlagEssential:       true,
		FlagFunctional:      false,
		FlagAnalytics:       false,
		FlagPerformance:     false,
		FlagMarketing:       false,
		FlagPersonalization: false,
		FlagThirdParty:      false,
	}
	switch level {
	case LevelFull:
		flags[FlagThirdParty] = true
		fallthrough
	case LevelMarketing:
		flags[FlagMarketing] = true
		flags[FlagPersonalization] = true
		fallthrough
	case LevelAnalytics:
		flags[FlagAnalytics] = true
		flags[FlagPerformance] = true
		fallthrough
	case LevelFunctional:
		flags[FlagFunctional] = true
	}
	return flags
}

// Method records how a consent decision was captured.
type Method string

const (
	MethodBannerAccept   Method = "banner-accept"
	MethodBannerReject   Method = "banner-reject"
	MethodSettingsUpdate Method = "settings-update"
	MethodAutoEssential  Method = "auto-essential"
	MethodGDPRRequest    Method = "gdpr-request"
)

// ValidMethods is the single source of truth for capture methods.
var ValidMethods = map[Method]bool{
	MethodBannerAccept:   true,
	MethodBannerReject:   true,
	MethodSettingsUpdate: true,
	MethodAutoEssential:  true,
	MethodGDPRRequest:    true,
}

// IsValid checks if the method is one of the supported enum values.
func (m Method) IsValid() bool {
	return ValidMethods[m]
}
