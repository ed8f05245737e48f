package windowmonitor

import (
	"testing"

	"redaction-worker-go/internal/config"
)

func TestIsSensitiveTitle(t *testing.T) {
	cfg := &config.Config{
		SensitiveWindowKeywords: []string{".env", "secrets", "config", "apikey", ".pem", ".key"},
	}
	s := NewService(cfg, nil, nil)

	tests := []struct {
		title string
		want  bool
	}{
		{title: ".env - Visual Studio Code", want: true},
		{title: "production SECRETS.yaml - vim", want: true},
		{title: "nginx.CONF", want: false},
		{title: "app_config.json - editor", want: true},
		{title: "server.pem - less", want: true},
		{title: "id_rsa.key", want: true},
		{title: "Monthly Report.docx - Word", want: false},
		{title: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := s.isSensitiveTitle(tt.title); got != tt.want {
				t.Errorf("isSensitiveTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
