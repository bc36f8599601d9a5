package github

import (
	"testing"

	"github.com/rohankatakam/repograde/internal/errors"
	"github.com/rohankatakam/repograde/internal/models"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url     string
		want    models.RepositoryID
		wantErr bool
	}{
		{"https://github.com/octo/hello", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"https://github.com/octo/hello.git", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"http://github.com/octo/hello/", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"github.com/octo/hello", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"  https://github.com/octo/hello/tree/main/docs  ", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"https://github.com/octo/hello?tab=readme-ov-file#usage", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"git@github.com:octo/hello.git", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"ssh://git@github.com/octo/hello", models.RepositoryID{Owner: "octo", Name: "hello"}, false},
		{"https://ghe.example.com/team/service", models.RepositoryID{Owner: "team", Name: "service"}, false},
		{"", models.RepositoryID{}, true},
		{"octo/hello", models.RepositoryID{}, true},
		{"https://github.com/octo", models.RepositoryID{}, true},
		{"https://github.com/", models.RepositoryID{}, true},
		{"not a url", models.RepositoryID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRepoURL(%q) expected error, got %+v", tt.url, got)
				}
				if !errors.IsKind(err, errors.KindValidation) {
					t.Errorf("ParseRepoURL(%q) error kind = %v, want validation", tt.url, errors.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepoURL(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepoURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}
