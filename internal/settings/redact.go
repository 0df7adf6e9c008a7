package settings

import (
	"fmt"
	"net/url"

	"gopkg.in/yaml.v3"
)

// Mask replaces secret values in redacted output.
const Mask = "********"

// Clone returns a deep copy.
func (s *Settings) Clone() (*Settings, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone settings: %w", err)
	}
	out := &Settings{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("clone settings: %w", err)
	}
	out.SecretSource = s.SecretSource
	return out, nil
}

// Redacted returns a deep copy with every credential masked.
func (s *Settings) Redacted() (*Settings, error) {
	out, err := s.Clone()
	if err != nil {
		return nil, err
	}

	mask(&out.SecretKey)
	mask(&out.Database.Password)
	mask(&out.Email.HostPassword)
	for i := range out.Auth.Providers {
		mask(&out.Auth.Providers[i].Secret)
	}
	if out.Rollbar != nil {
		mask(&out.Rollbar.AccessToken)
	}
	if out.Sentry != nil {
		mask(&out.Sentry.DSN)
	}
	maskPtr(out.Site.AkismetAPIKey)
	for name, c := range out.Caches {
		c.Location = maskURLPassword(c.Location)
		out.Caches[name] = c
	}
	out.Celery.BrokerURL = maskURLPassword(out.Celery.BrokerURL)

	m := &out.Machinery
	for _, p := range []*string{
		m.DeepLKey, m.MicrosoftCognitiveKey, m.MyMemoryKey, m.GoogleKey,
		m.BaiduSecret, m.YoudaoSecret, m.YandexKey, m.SAPSandboxAPIKey, m.SAPPassword,
	} {
		maskPtr(p)
	}
	return out, nil
}

func mask(v *string) {
	if *v != "" {
		*v = Mask
	}
}

func maskPtr(v *string) {
	if v != nil {
		mask(v)
	}
}

// maskURLPassword hides the password of a URL with userinfo. Other values
// pass through unchanged.
func maskURLPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Redacted()
}
