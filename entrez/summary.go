package entrez

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DocumentSummary is a version 2.0 esummary record. Only the fields the
// pipeline reads are decoded; Meta holds the embedded statistics XML of an
// assembly record verbatim.
type DocumentSummary struct {
	UID               string `xml:"uid,attr"`
	AssemblyAccession string `xml:"AssemblyAccession"`
	AssemblyName      string `xml:"AssemblyName"`
	Taxid             string `xml:"Taxid"`
	Meta              string `xml:"Meta"`
	Error             string `xml:"error"`
}

type docSumResult struct {
	Error string `xml:"ERROR"`
	Set   struct {
		Status    string            `xml:"status,attr"`
		Summaries []DocumentSummary `xml:"DocumentSummary"`
	} `xml:"DocumentSummarySet"`
}

// DocumentSummary fetches the version 2.0 document summary of one record.
func (c *Client) DocumentSummary(ctx context.Context, db, id string) (*DocumentSummary, error) {
	v := c.values()
	v.Set("db", db)
	v.Set("id", id)
	v.Set("version", "2.0")

	var res docSumResult
	err := c.post(ctx, utilSummary, "esummary", v, func(r io.Reader) error {
		return decodeXML(r, &res)
	})
	if err != nil {
		return nil, err
	}
	if msg := strings.TrimSpace(res.Error); msg != "" {
		return nil, &ServiceError{Util: utilSummary, Message: msg}
	}

	for i := range res.Set.Summaries {
		doc := res.Set.Summaries[i]
		if strings.TrimSpace(doc.UID) != id {
			continue
		}
		if msg := strings.TrimSpace(doc.Error); msg != "" {
			return nil, &ServiceError{Util: utilSummary, Message: fmt.Sprintf("%s %s: %s", db, id, msg)}
		}

		return &doc, nil
	}

	return nil, &ServiceError{Util: utilSummary, Message: fmt.Sprintf("no document summary for %s %s", db, id)}
}

type docSum struct {
	ID    string       `xml:"Id"`
	Items []docSumItem `xml:"Item"`
}

type docSumItem struct {
	Name  string `xml:"Name,attr"`
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type eSummaryResult struct {
	Error   string   `xml:"ERROR"`
	DocSums []docSum `xml:"DocSum"`
}

// Accessions resolves transient UIDs to their accession.version strings.
// UIDs the server does not return are absent from the map.
func (c *Client) Accessions(ctx context.Context, db string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	v := c.values()
	v.Set("db", db)
	v.Set("id", strings.Join(ids, ","))

	var res eSummaryResult
	err := c.post(ctx, utilSummary, "esummary", v, func(r io.Reader) error {
		return decodeXML(r, &res)
	})
	if err != nil {
		return nil, err
	}
	if msg := strings.TrimSpace(res.Error); msg != "" && len(res.DocSums) == 0 {
		return nil, &ServiceError{Util: utilSummary, Message: msg}
	}

	for _, ds := range res.DocSums {
		for _, item := range ds.Items {
			if item.Name == "AccessionVersion" {
				out[strings.TrimSpace(ds.ID)] = strings.TrimSpace(item.Value)
				break
			}
		}
	}

	return out, nil
}
