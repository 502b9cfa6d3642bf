package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(name string) string { return values[name] }
}

func TestDefaultSettingsParse(t *testing.T) {
	s, err := loadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "docs/data.xlsx", s.QueuePath)
	assert.True(t, s.Post.Secret)
	assert.Equal(t, 22, s.Generator.TitleMin)
	assert.Equal(t, 30, s.Generator.TitleMax)
	assert.Len(t, s.Site.LoginURLs, 2)
	require.Len(t, s.Generator.Categories, 3)

	subs := 0
	for _, g := range s.Generator.Categories {
		subs += len(g.Subcategories)
	}
	assert.Equal(t, 14, subs)
	assert.NoError(t, validateSettings(s))
}

func TestLoadSettingsRequired(t *testing.T) {
	_, err := loadSettingsRequired(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  write_url: https://example.test/write\n"), 0644))
	s, err := loadSettingsRequired(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/write", s.Site.WriteURL)

	require.NoError(t, os.WriteFile(path, []byte("site: [unclosed"), 0644))
	_, err = loadSettingsRequired(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantWrite string
		wantList  string
		secret    bool
	}{
		{
			name:      "nothing set keeps settings",
			env:       map[string]string{},
			wantWrite: "https://zae-da.com/bbs/write.php",
			wantList:  "https://zae-da.com/bbs/list.php",
			secret:    true,
		},
		{
			name:      "primary names",
			env:       map[string]string{"ZAEDA_WRITE_URL": "https://a.test/w", "LIST_URL": "https://a.test/l", "MALL_SECRET_DEFAULT": "0"},
			wantWrite: "https://a.test/w",
			wantList:  "https://a.test/l",
			secret:    false,
		},
		{
			name:      "alias names",
			env:       map[string]string{"WRITE_URL": "https://b.test/w", "SECRET_DEFAULT": "0"},
			wantWrite: "https://b.test/w",
			wantList:  "https://zae-da.com/bbs/list.php",
			secret:    false,
		},
		{
			name:      "primary wins over alias",
			env:       map[string]string{"ZAEDA_WRITE_URL": "https://a.test/w", "WRITE_URL": "https://b.test/w"},
			wantWrite: "https://a.test/w",
			wantList:  "https://zae-da.com/bbs/list.php",
			secret:    true,
		},
		{
			name:      "unknown secret value is ignored",
			env:       map[string]string{"MALL_SECRET_DEFAULT": "yes"},
			wantWrite: "https://zae-da.com/bbs/write.php",
			wantList:  "https://zae-da.com/bbs/list.php",
			secret:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Settings: &Settings{
				Site: SiteSettings{
					WriteURL: "https://zae-da.com/bbs/write.php",
					ListURL:  "https://zae-da.com/bbs/list.php",
				},
				Post: PostSettings{Secret: true},
			}}

			applyEnv(cfg, envFrom(tt.env))

			assert.Equal(t, tt.wantWrite, cfg.Settings.Site.WriteURL)
			assert.Equal(t, tt.wantList, cfg.Settings.Site.ListURL)
			assert.Equal(t, tt.secret, cfg.Settings.Post.Secret)
		})
	}
}

func TestApplyEnvSecrets(t *testing.T) {
	cfg := &Config{Settings: &Settings{}}
	applyEnv(cfg, envFrom(map[string]string{
		"ZAEDA_ID":             " writer ",
		"ZAEDA_PW":             "pw",
		"ANTHROPIC_API_KEY":    "sk-test",
		"CHROME_USER_DATA_DIR": "/home/u/chrome",
		"CHROME_PROFILE":       "Profile 2",
	}))

	assert.Equal(t, Credentials{ID: "writer", Password: "pw"}, cfg.Credentials)
	assert.False(t, cfg.Credentials.Empty())
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "/home/u/chrome", cfg.Settings.Browser.UserDataDir)
	assert.Equal(t, "Profile 2", cfg.Settings.Browser.Profile)

	cfg = &Config{Settings: &Settings{}}
	applyEnv(cfg, envFrom(map[string]string{"ZAEDA_ID": "writer"}))
	assert.True(t, cfg.Credentials.Empty(), "an ID without a password is not usable")
}

func TestApplyOverrides(t *testing.T) {
	s := &Settings{QueuePath: "docs/data.xlsx", Post: PostSettings{Secret: true, ImageCount: 2}}
	queue := "other.xlsx"
	secret := false
	images := 5
	headless := true

	applyOverrides(s, &ConfigOverrides{QueuePath: &queue, Secret: &secret, ImageCount: &images, Headless: &headless})

	assert.Equal(t, "other.xlsx", s.QueuePath)
	assert.False(t, s.Post.Secret)
	assert.Equal(t, 5, s.Post.ImageCount)
	assert.True(t, s.Browser.Headless)

	applyOverrides(s, nil)
	assert.Equal(t, "other.xlsx", s.QueuePath)
}

func TestApplyDefaults(t *testing.T) {
	s := &Settings{Post: PostSettings{ImageCount: 25}}
	applyDefaults(s)

	assert.Equal(t, filepath.Join("docs", "data.xlsx"), s.QueuePath)
	assert.Equal(t, maxUploadFiles, s.Post.ImageCount)
	assert.Equal(t, 3, s.Site.AlertLimit)
	assert.Equal(t, "로그아웃", s.Site.LogoutText)
	assert.Equal(t, 22, s.Generator.TitleMin)
	assert.Equal(t, 30, s.Generator.TitleMax)
	assert.Equal(t, 180, s.Login.ManualTimeoutSeconds)

	s = &Settings{Post: PostSettings{ImageCount: -1}}
	applyDefaults(s)
	assert.Equal(t, 0, s.Post.ImageCount)
}

func TestValidateSettings(t *testing.T) {
	s := &Settings{}
	applyDefaults(s)
	assert.Error(t, validateSettings(s), "a target URL is required")

	s.Site.ListURL = "https://zae-da.com/bbs/list.php"
	assert.NoError(t, validateSettings(s))

	s.Generator.TitleMin = 40
	assert.Error(t, validateSettings(s))
}

func TestSiteOrigin(t *testing.T) {
	tests := []struct {
		name string
		site SiteSettings
		want string
	}{
		{"base url on target host", SiteSettings{BaseURL: "https://zae-da.com", WriteURL: "https://zae-da.com/bbs/write.php"}, "https://zae-da.com"},
		{"empty base url", SiteSettings{WriteURL: "https://zae-da.com/bbs/write.php?boardid=41"}, "https://zae-da.com"},
		{"base url on other host", SiteSettings{BaseURL: "https://zae-da.com", WriteURL: "https://mall.example.test/bbs/write.php"}, "https://mall.example.test"},
		{"list url only", SiteSettings{ListURL: "http://shop.test:8080/bbs/list.php"}, "http://shop.test:8080"},
		{"no target", SiteSettings{BaseURL: "https://zae-da.com"}, "https://zae-da.com"},
		{"nothing set", SiteSettings{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.site.Origin())
		})
	}
}

func TestBrowserTimeout(t *testing.T) {
	assert.Equal(t, "20s", BrowserSettings{}.Timeout().String())
	assert.Equal(t, "5s", BrowserSettings{TimeoutSeconds: 5}.Timeout().String())
}
