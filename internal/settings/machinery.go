package settings

import "github.com/eugenenazirov/weblate-settings/internal/env"

const (
	deeplService     = "weblate.machinery.deepl.DeepLTranslation"
	microsoftService = "weblate.machinery.microsoft.MicrosoftCognitiveTranslation"
	mymemoryService  = "weblate.machinery.mymemory.MyMemoryTranslation"
	glosbeService    = "weblate.machinery.glosbe.GlosbeTranslation"
	googleService    = "weblate.machinery.google.GoogleTranslation"
)

// resolveMachinery enables services in a fixed order. DeepL needs a
// non-empty key, every other service only needs its variable to be present.
func resolveMachinery(r *env.Reader, adminEmail string) Machinery {
	m := Machinery{
		Services:      clone(defaultMachinery),
		MyMemoryEmail: adminEmail,
		SAPUseMT:      true,
	}

	m.DeepLKey = r.Optional("WEBLATE_MT_DEEPL_KEY")
	if m.DeepLKey != nil && *m.DeepLKey != "" {
		m.Services = append(m.Services, deeplService)
	}

	m.MicrosoftCognitiveKey = r.Optional("WEBLATE_MT_MICROSOFT_COGNITIVE_KEY")
	if m.MicrosoftCognitiveKey != nil {
		m.Services = append(m.Services, microsoftService)
	}

	if r.Has("WEBLATE_MT_MYMEMORY_ENABLED") {
		m.Services = append(m.Services, mymemoryService)
	}

	if r.Has("WEBLATE_MT_GLOSBE_ENABLED") {
		m.Services = append(m.Services, glosbeService)
	}

	m.GoogleKey = r.Optional("WEBLATE_MT_GOOGLE_KEY")
	if m.GoogleKey != nil {
		m.Services = append(m.Services, googleService)
	}

	return m
}
