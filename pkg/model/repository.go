package model

import "fmt"

const (
	// RepositoryTypeGit is the only actionable repository type
	RepositoryTypeGit = "git"

	// DefaultBranch is checked out when a repository does not specify a branch
	DefaultBranch = "master"

	// ManifestFile is the name of the file describing a module, at the root of its repository
	ManifestFile = "module.json"
)

// Repository describes where the source of a module lives
type Repository struct {
	Type   string `json:"type" yaml:"type"`
	URL    string `json:"url" yaml:"url"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// IsGit tells if the repository can be cloned with git
func (r Repository) IsGit() bool {
	return r.Type == RepositoryTypeGit
}

// Ref yields the branch to check out
func (r Repository) Ref() string {
	if r.Branch == "" {
		return DefaultBranch
	}
	return r.Branch
}

// Repository extracts the repository descriptor of the record.
//
// The boolean is false when the record declares no repository. Only git
// descriptors are validated: any other descriptor, including one that is not
// an object or has no string type, is returned as a non-git repository.
func (r Record) Repository() (Repository, bool, error) {
	raw, ok := r[FieldRepository]
	if !ok || raw == nil {
		return Repository{}, false, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		rec, isRecord := raw.(Record)
		if !isRecord {
			return Repository{}, true, nil
		}
		m = rec
	}

	var repo Repository
	repo.Type, _ = m["type"].(string)
	if !repo.IsGit() {
		return repo, true, nil
	}

	for _, field := range []struct {
		name   string
		target *string
	}{
		{"url", &repo.URL},
		{"branch", &repo.Branch},
	} {
		v, found := m[field.name]
		if !found || v == nil {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return Repository{}, true, ErrInvalidRecord.Wrapf("%s: git repository %s is a %T, expected a string", r.ID(), field.name, v)
		}
		*field.target = s
	}

	if repo.URL == "" {
		return Repository{}, true, ErrInvalidRecord.Wrap(fmt.Errorf("%s: git repository without url", r.ID()))
	}
	return repo, true, nil
}
