package i18n

import "strings"

// supportedLanguages are the reply languages shipped in translations.yml.
var supportedLanguages = map[string]string{
	"en": "English",
	"fr": "Français",
}

func GetLanguageName(code string) string {
	if name, ok := supportedLanguages[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// IsSupported reports whether replies can be rendered in code.
func IsSupported(code string) bool {
	_, ok := supportedLanguages[strings.ToLower(code)]
	return ok
}
