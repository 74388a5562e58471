package status

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"time"
)

// RTMPFetcher reads the nginx-rtmp XML statistics page.
type RTMPFetcher struct {
	statusURL string
	baseURL   string
	timeout   time.Duration
	client    *http.Client
}

// NewRTMPFetcher returns a fetcher for statusURL. Playback URLs are built as
// baseURL + "/" + name. A nil client uses http.DefaultClient.
func NewRTMPFetcher(client *http.Client, statusURL, baseURL string, timeout time.Duration) *RTMPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &RTMPFetcher{
		statusURL: statusURL,
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   timeout,
		client:    client,
	}
}

// Name identifies the source in logs and metrics.
func (f *RTMPFetcher) Name() string { return "rtmp" }

// Fetch returns the streams currently published to the RTMP server.
// Any error means the result is unknown, which is different from an empty list.
func (f *RTMPFetcher) Fetch(ctx context.Context) ([]StreamRecord, error) {
	body, err := getStatus(ctx, f.client, f.Name(), f.statusURL, f.timeout)
	if err != nil {
		return nil, err
	}

	names, err := parseRTMPStreamNames(body)
	if err != nil {
		return nil, &FetchError{Source: f.Name(), Op: "decode", Err: err}
	}

	records := make([]StreamRecord, 0, len(names))
	for _, name := range names {
		records = append(records, StreamRecord{Name: name, URL: f.baseURL + "/" + name})
	}
	return dedupe(records), nil
}

// xmlNode is a generic element used to walk arbitrary status documents.
type xmlNode struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

// parseRTMPStreamNames collects the direct <name> child of every <stream>
// element in the document, at any depth. Blank names are skipped.
func parseRTMPStreamNames(doc []byte) ([]string, error) {
	var root xmlNode
	dec := xml.NewDecoder(bytes.NewReader(doc))
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}

	var names []string
	var walk func(n *xmlNode)
	walk = func(n *xmlNode) {
		for i := range n.Children {
			child := &n.Children[i]
			if child.XMLName.Local == "stream" {
				if name := directChildText(child, "name"); name != "" {
					names = append(names, name)
				}
			}
			walk(child)
		}
	}
	walk(&root)
	return names, nil
}

func directChildText(n *xmlNode, local string) string {
	for _, c := range n.Children {
		if c.XMLName.Local == local {
			return strings.TrimSpace(c.Text)
		}
	}
	return ""
}
