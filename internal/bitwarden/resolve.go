package bitwarden

import (
	"context"
	"encoding/json"
	"strings"
)

// GetEntry fetches a field from the vault item identified by term, which may
// be an item id or a (possibly non-unique) item name. The fallbacks run in a
// fixed order:
//
//  1. direct 'bw get <field> <term>' — succeeds only when term is already an
//     exact, unambiguous key, and bypasses scope filtering
//  2. on an ambiguous match, a scoped search resolves term to an item id and
//     the direct get is re-issued with that id
//  3. when the field is not a bw object type, the full item JSON is fetched,
//     checked against the scope, and the field path is navigated instead
//
// The returned value is the raw CLI output for direct gets, or the navigated
// JSON value (possibly a slice) when the field path walks into the item.
func (c *Client) GetEntry(ctx context.Context, term, field string, scope ResolvedScope) (interface{}, error) {
	out, err := c.run(ctx, "get", field, term)
	if err == nil {
		return out, nil
	}
	if !isRecoverable(err) {
		return nil, err
	}

	itemRef := term
	if isAmbiguous(err) {
		id, serr := c.searchForID(ctx, term, scope)
		if serr != nil {
			return nil, serr
		}
		itemRef = id

		out, err = c.run(ctx, "get", field, id)
		if err == nil {
			return out, nil
		}
		if !isRecoverable(err) {
			return nil, err
		}
	}

	if field == "item" {
		return nil, ItemNotFoundError{Key: term, Scope: scopeLabel(scope)}
	}

	// field is not a bw object type: fetch the whole item and walk into it
	item, raw, ierr := c.fetchItem(ctx, itemRef)
	if ierr != nil {
		return nil, ierr
	}
	if !matchesScope(item, scope) {
		return nil, ScopeMismatchError{Key: term, Scope: scope.String()}
	}

	return navigate(raw, strings.Split(field, "."), field, term)
}

// searchForID finds the unique item id for a name within the active scope.
// The search runs twice at most: once with the full term, then with the term
// split on whitespace into separate search tokens, which handles multi-word
// names the bw search indexer tokenizes. Among the results, the first item
// whose name exactly equals term and which satisfies the scope wins; result
// order is whatever the CLI returns.
func (c *Client) searchForID(ctx context.Context, term string, scope ResolvedScope) (string, error) {
	attempts := [][]string{{"--search", term}}
	if tokens := strings.Fields(term); len(tokens) > 1 {
		tokenArgs := make([]string, 0, 2*len(tokens))
		for _, tok := range tokens {
			tokenArgs = append(tokenArgs, "--search", tok)
		}
		attempts = append(attempts, tokenArgs)
	}

	for _, searchArgs := range attempts {
		args := append([]string{"list", "items"}, searchArgs...)
		out, err := c.run(ctx, args...)
		if err != nil {
			return "", err
		}

		var items []Item
		if err := json.Unmarshal([]byte(out), &items); err != nil {
			return "", DecodeError{Source: "search results", Err: err}
		}

		for _, item := range items {
			if item.Name != term {
				continue
			}
			if !matchesScope(item, scope) {
				continue
			}
			c.logger.Debug("resolved item '%s' to %s", term, item.ID)
			return item.ID, nil
		}
	}

	return "", ItemNotFoundError{Key: term, Scope: scopeLabel(scope)}
}

// fetchItem retrieves the full item JSON both as a typed Item (for scope
// checks and attachment listings) and as raw decoded JSON (for field path
// navigation).
func (c *Client) fetchItem(ctx context.Context, ref string) (Item, map[string]interface{}, error) {
	out, err := c.run(ctx, "get", "item", ref)
	if err != nil {
		return Item{}, nil, err
	}

	var item Item
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		return Item{}, nil, DecodeError{Source: "item", Err: err}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return Item{}, nil, DecodeError{Source: "item", Err: err}
	}

	return item, raw, nil
}

// scopeLabel names the active scope in not-found errors, or nothing when the
// lookup is unscoped.
func scopeLabel(scope ResolvedScope) string {
	if !scope.Active() {
		return ""
	}
	return scope.String()
}
