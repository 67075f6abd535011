// Package openfda is the best-effort remote fallback for drugs absent from
// the local DRAP dataset. It queries the openFDA drug label and adverse-event
// endpoints and translates their loosely shaped payloads into the internal
// types at this boundary, so no other component branches on payload shape.
package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mediscan/mediscan-api/interfaces"
)

const (
	// DefaultBaseURL is the public openFDA API root.
	DefaultBaseURL = "https://api.fda.gov"

	maxUses          = 6
	maxDosageEntries = 2
	maxReactionTerms = 12
	eventQueryLimit  = 100
	maxResponseBytes = 4 * 1024 * 1024
)

// Compile-time checks to ensure Client implements both remote source contracts
var (
	_ interfaces.LabelSource = (*Client)(nil)
	_ interfaces.EventSource = (*Client)(nil)
)

// Client queries openFDA with a bounded per-request timeout so a hung remote
// call cannot delay a merged view indefinitely.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an openFDA client. An empty baseURL selects the public
// API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

// textOrList absorbs openFDA fields that arrive either as a string or as a
// list of strings. Any other shape decodes to empty.
type textOrList []string

func (t *textOrList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = []string{single}
		return nil
	}
	*t = nil
	return nil
}

type labelResponse struct {
	Results []struct {
		IndicationsAndUsage     textOrList `json:"indications_and_usage"`
		Purpose                 textOrList `json:"purpose"`
		Description             textOrList `json:"description"`
		DosageAndAdministration textOrList `json:"dosage_and_administration"`
		HowSupplied             textOrList `json:"how_supplied"`
	} `json:"results"`
}

type eventResponse struct {
	Results []struct {
		Patient struct {
			Reaction []struct {
				ReactionMedDRAPT string `json:"reactionmeddrapt"`
			} `json:"reaction"`
		} `json:"patient"`
	} `json:"results"`
}

func (c *Client) get(ctx context.Context, path string, query string, limit int) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s?search=%s&limit=%d", c.baseURL, path, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	return body, nil
}

// FetchLabel returns indications (capped at 6 entries) and dosage text
// (first 2 entries joined) for the top label match of a brand name.
func (c *Client) FetchLabel(ctx context.Context, name string) (interfaces.LabelInfo, error) {
	body, err := c.get(ctx, "/drug/label.json", fmt.Sprintf("openfda.brand_name:%q", name), 1)
	if err != nil {
		return interfaces.LabelInfo{}, err
	}

	var decoded labelResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return interfaces.LabelInfo{}, fmt.Errorf("malformed label payload: %w", err)
	}
	if len(decoded.Results) == 0 {
		return interfaces.LabelInfo{}, nil
	}

	top := decoded.Results[0]
	uses := firstPopulated(top.IndicationsAndUsage, top.Purpose, top.Description)
	if len(uses) > maxUses {
		uses = uses[:maxUses]
	}

	dosage := firstPopulated(top.DosageAndAdministration, top.HowSupplied)
	if len(dosage) > maxDosageEntries {
		dosage = dosage[:maxDosageEntries]
	}

	return interfaces.LabelInfo{
		Uses:   uses,
		Dosage: strings.Join(dosage, " "),
	}, nil
}

// FetchReactions aggregates reaction terms across up to 100 adverse-event
// records for a medicinal product and returns the 12 most frequent terms,
// descending by count, ties broken by first appearance in the payload.
func (c *Client) FetchReactions(ctx context.Context, name string) ([]string, error) {
	body, err := c.get(ctx, "/drug/event.json", fmt.Sprintf("patient.drug.medicinalproduct:%q", name), eventQueryLimit)
	if err != nil {
		return nil, err
	}

	var decoded eventResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("malformed event payload: %w", err)
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, ev := range decoded.Results {
		for _, rx := range ev.Patient.Reaction {
			term := rx.ReactionMedDRAPT
			if term == "" {
				continue
			}
			if _, seen := counts[term]; !seen {
				firstSeen[term] = order
				order++
			}
			counts[term]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return firstSeen[terms[i]] < firstSeen[terms[j]]
	})

	if len(terms) > maxReactionTerms {
		terms = terms[:maxReactionTerms]
	}

	return terms, nil
}

func firstPopulated(lists ...textOrList) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return []string(l)
		}
	}
	return nil
}
