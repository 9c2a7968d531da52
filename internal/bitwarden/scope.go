package bitwarden

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// Scope restricts which items are eligible lookup matches. Each reference is
// either empty (no scoping), a UUID (already an identifier), or a display
// name that must be resolved through the vault.
type Scope struct {
	Organization string
	Collection   string
}

// ResolvedScope holds scope identifiers after display-name resolution.
// Empty fields mean the corresponding scope is inactive.
type ResolvedScope struct {
	OrganizationID string
	CollectionID   string
}

// Active reports whether any scoping is in effect.
func (s ResolvedScope) Active() bool {
	return s.OrganizationID != "" || s.CollectionID != ""
}

// String renders the scope for error messages.
func (s ResolvedScope) String() string {
	switch {
	case s.OrganizationID != "" && s.CollectionID != "":
		return fmt.Sprintf("organization '%s' and collection '%s'", s.OrganizationID, s.CollectionID)
	case s.OrganizationID != "":
		return fmt.Sprintf("organization '%s'", s.OrganizationID)
	case s.CollectionID != "":
		return fmt.Sprintf("collection '%s'", s.CollectionID)
	default:
		return "vault"
	}
}

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// isUUID reports whether ref is already a vault identifier.
func isUUID(ref string) bool {
	return uuidPattern.MatchString(ref)
}

// ResolveScope turns display-name references into identifiers. Results are
// memoized on the client, so repeated lookups within one invocation issue at
// most one CLI call per reference.
func (c *Client) ResolveScope(ctx context.Context, scope Scope) (ResolvedScope, error) {
	orgID, err := c.resolveOrganization(ctx, scope.Organization)
	if err != nil {
		return ResolvedScope{}, err
	}
	collID, err := c.resolveCollection(ctx, scope.Collection)
	if err != nil {
		return ResolvedScope{}, err
	}
	return ResolvedScope{OrganizationID: orgID, CollectionID: collID}, nil
}

// resolveOrganization maps an organization reference to its identifier.
func (c *Client) resolveOrganization(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if id, ok := c.orgIDs[ref]; ok {
		return id, nil
	}
	if isUUID(ref) {
		c.orgIDs[ref] = ref
		return ref, nil
	}

	out, err := c.run(ctx, "get", "organization", ref)
	if err != nil {
		if _, ok := err.(ItemNotFoundError); ok {
			return "", ScopeNotFoundError{Kind: "organization", Name: ref}
		}
		return "", err
	}

	var org Organization
	if err := json.Unmarshal([]byte(out), &org); err != nil {
		return "", DecodeError{Source: "organization", Err: err}
	}
	if org.ID == "" {
		return "", ScopeNotFoundError{Kind: "organization", Name: ref}
	}

	c.logger.Debug("resolved organization '%s' to %s", ref, org.ID)
	c.orgIDs[ref] = org.ID
	return org.ID, nil
}

// resolveCollection maps a collection reference to its identifier. The first
// collection whose name equals ref wins.
func (c *Client) resolveCollection(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if id, ok := c.collIDs[ref]; ok {
		return id, nil
	}
	if isUUID(ref) {
		c.collIDs[ref] = ref
		return ref, nil
	}

	out, err := c.run(ctx, "list", "collections", "--search", ref)
	if err != nil {
		return "", err
	}

	var collections []Collection
	if err := json.Unmarshal([]byte(out), &collections); err != nil {
		return "", DecodeError{Source: "collection list", Err: err}
	}

	for _, coll := range collections {
		if coll.Name == ref {
			c.logger.Debug("resolved collection '%s' to %s", ref, coll.ID)
			c.collIDs[ref] = coll.ID
			return coll.ID, nil
		}
	}

	return "", ScopeNotFoundError{Kind: "collection", Name: ref}
}

// matchesScope reports whether an item satisfies every active scope. Both
// predicates combine with AND; an unscoped lookup matches every item.
func matchesScope(item Item, scope ResolvedScope) bool {
	if scope.CollectionID != "" && !containsString(item.CollectionIDs, scope.CollectionID) {
		return false
	}
	if scope.OrganizationID != "" && item.OrganizationID != scope.OrganizationID {
		return false
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
