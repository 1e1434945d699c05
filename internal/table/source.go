package table

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"pdxgraph/internal/blob"
)

const tsvExt = ".tsv"

// LoadProvider reads every TSV file under <root>/<provider>/ from store,
// descending into subdirectories, and returns them keyed by logical name:
// the file base name with the "<provider>_" prefix removed.
func LoadProvider(ctx context.Context, store blob.Store, root, provider string) (Set, error) {
	prefix := providerPrefix(root, provider)
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	set := make(Set)
	for _, info := range infos {
		if !strings.HasSuffix(strings.ToLower(info.Key), tsvExt) {
			continue
		}
		name := LogicalName(provider, path.Base(info.Key))
		if _, dup := set[name]; dup {
			return nil, fmt.Errorf("provider %s: duplicate table %s", provider, name)
		}
		t, err := readTable(ctx, store, info.Key, name)
		if err != nil {
			return nil, err
		}
		set.Add(t)
	}
	return set, nil
}

func readTable(ctx context.Context, store blob.Store, key, name string) (*Table, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	t, err := ParseTSV(name, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return t, nil
}

// LogicalName strips the provider prefix from a file name.
func LogicalName(provider, file string) string {
	return strings.TrimPrefix(file, provider+"_")
}

// ListProviders returns the provider directories found directly under root.
func ListProviders(ctx context.Context, store blob.Store, root string) ([]string, error) {
	prefix := strings.Trim(root, "/")
	if prefix != "" {
		prefix += "/"
	}
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	seen := make(map[string]struct{})
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, prefix)
		i := strings.Index(rest, "/")
		if i <= 0 {
			continue
		}
		seen[rest[:i]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func providerPrefix(root, provider string) string {
	root = strings.Trim(root, "/")
	if root == "" {
		return provider + "/"
	}
	return root + "/" + provider + "/"
}
