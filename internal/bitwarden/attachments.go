package bitwarden

import (
	"context"
)

// FetchAttachment downloads one attachment to outputDir+fileName and returns
// the CLI's confirmation output. The fallback ladder is bounded:
//
//  1. direct download, treating key as an attachment id or search and itemRef
//     as an item id
//  2. itemRef may actually be an item name: resolve it through the scoped
//     search and retry
//  3. key may actually be a file name: fetch the item, match it against the
//     attachment list, and retry with that attachment's id
//
// Ambiguous and not-found failures both enter the next rung; exhausting the
// ladder surfaces the last classified error.
func (c *Client) FetchAttachment(ctx context.Context, key, itemRef, outputDir, fileName string, scope ResolvedScope) (string, error) {
	dest := outputDir + fileName

	out, err := c.download(ctx, key, itemRef, dest)
	if err == nil {
		return out, nil
	}
	if !isAmbiguousOrNotFound(err) {
		return "", err
	}

	itemID, serr := c.searchForID(ctx, itemRef, scope)
	if serr != nil {
		return "", serr
	}

	out, err = c.download(ctx, key, itemID, dest)
	if err == nil {
		return out, nil
	}
	if !isAmbiguousOrNotFound(err) {
		return "", err
	}

	item, _, ierr := c.fetchItem(ctx, itemID)
	if ierr != nil {
		return "", ierr
	}

	for _, attachment := range item.Attachments {
		if attachment.FileName != key {
			continue
		}
		return c.download(ctx, attachment.ID, itemID, dest)
	}

	return "", err
}

func (c *Client) download(ctx context.Context, key, itemID, dest string) (string, error) {
	return c.run(ctx, "get", "attachment", key, "--output="+dest, "--itemid="+itemID)
}
