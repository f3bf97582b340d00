package fixes

import (
	"testing"

	"github.com/huangsam/gitfixes/schema"
	"github.com/stretchr/testify/assert"
)

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "example.com", EmailDomain("alice@Example.COM"))
	assert.Equal(t, "b.org", EmailDomain("odd@name@b.org"))
	assert.Equal(t, "", EmailDomain("nobody"))
}

func TestAttribute(t *testing.T) {
	entry := schema.KnownEntry{CommitID: "deadbeef01", Owner: "alice@example.com"}

	tests := []struct {
		name      string
		domains   []string
		committer string
		showAll   bool
		author    string
		commitEml string
		accept    bool
		owner     string
	}{
		{"no filter keeps db owner", nil, "", false, "x@y.org", "x@y.org", true, "alice@example.com"},
		{"author in domain", []string{"corp.com"}, "", false, "dev@corp.com", "maint@kernel.org", true, "dev@corp.com"},
		{"committer in domain", []string{"@Corp.com"}, "", false, "x@y.org", "maint@CORP.com", true, "maint@CORP.com"},
		{"author wins over committer", []string{"corp.com"}, "", false, "a@corp.com", "c@corp.com", true, "a@corp.com"},
		{"filter matches owner", nil, "alice", false, "x@y.org", "x@y.org", true, "alice@example.com"},
		{"filter rejects owner", nil, "bob", false, "x@y.org", "x@y.org", false, "alice@example.com"},
		{"filter is case sensitive", nil, "Alice", false, "x@y.org", "x@y.org", false, "alice@example.com"},
		{"filter sees overridden owner", []string{"corp.com"}, "dev@", false, "dev@corp.com", "x@y.org", true, "dev@corp.com"},
		{"show all bypasses filter", nil, "bob", true, "x@y.org", "x@y.org", true, "alice@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAttributor(tt.domains, tt.committer, tt.showAll)
			accept, owner := a.Attribute(entry, tt.author, tt.commitEml)
			assert.Equal(t, tt.accept, accept)
			assert.Equal(t, tt.owner, owner)
		})
	}
}
