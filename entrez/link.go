package entrez

import (
	"context"
	"io"
	"strings"
)

type eLinkResult struct {
	Error    string    `xml:"ERROR"`
	LinkSets []linkSet `xml:"LinkSet"`
}

type linkSet struct {
	IDs []string    `xml:"IdList>Id"`
	DBs []linkSetDB `xml:"LinkSetDb"`
}

type linkSetDB struct {
	DBTo     string   `xml:"DbTo"`
	LinkName string   `xml:"LinkName"`
	Links    []string `xml:"Link>Id"`
}

// Link returns, for every source id that has at least one link named
// linkName, the ordered list of linked ids in toDB. Ids without links are
// absent from the map.
func (c *Client) Link(ctx context.Context, fromDB, toDB, linkName string, ids []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(ids) == 0 {
		return out, nil
	}

	v := c.values()
	v.Set("dbfrom", fromDB)
	v.Set("db", toDB)
	if linkName != "" {
		v.Set("linkname", linkName)
	}

	// One id parameter per source id makes elink answer with one LinkSet per
	// id, which is what lets the result be keyed by source id.
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		v.Add("id", id)
	}

	var res eLinkResult
	err := c.post(ctx, utilLink, "elink", v, func(r io.Reader) error {
		return decodeXML(r, &res)
	})
	if err != nil {
		return nil, err
	}
	if msg := strings.TrimSpace(res.Error); msg != "" {
		return nil, &ServiceError{Util: utilLink, Message: msg}
	}

	for _, ls := range res.LinkSets {
		if len(ls.IDs) == 0 {
			continue
		}
		from := strings.TrimSpace(ls.IDs[0])
		if _, done := out[from]; done {
			continue
		}

		for _, db := range ls.DBs {
			if linkName != "" && db.LinkName != linkName {
				continue
			}
			for _, to := range db.Links {
				out[from] = append(out[from], strings.TrimSpace(to))
			}
		}
	}

	return out, nil
}
