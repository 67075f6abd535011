// Package resolver implements the scan-to-record resolution pipeline: it
// reconciles a parsed scan candidate against the local DRAP index and, only
// on a local miss, against the remote openFDA fallback, producing one merged
// drug view. Remote failures shrink the view, they never abort it.
package resolver

import (
	"context"
	"strings"
	"sync"

	"github.com/mediscan/mediscan-api/drapparser/entities"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
	"github.com/mediscan/mediscan-api/metrics"
)

// Compile-time check to ensure Engine implements Resolver
var _ interfaces.Resolver = (*Engine)(nil)

// Engine resolves candidates using an injected index and remote sources.
type Engine struct {
	dataStore interfaces.DataStore
	labels    interfaces.LabelSource
	events    interfaces.EventSource
}

// NewEngine creates a resolution engine with injected dependencies.
func NewEngine(dataStore interfaces.DataStore, labels interfaces.LabelSource, events interfaces.EventSource) *Engine {
	return &Engine{
		dataStore: dataStore,
		labels:    labels,
		events:    events,
	}
}

// Resolve produces the merged view for one candidate.
//
// An empty trimmed name short-circuits to a terminal "no drug detected" view
// without touching any source. A local index hit (exact, then fuzzy)
// short-circuits the remote fallback entirely. On a local miss the label and
// event queries run concurrently and fail independently.
func (e *Engine) Resolve(ctx context.Context, candidate entities.Candidate) entities.MergedView {
	name := strings.TrimSpace(candidate.Name)
	if name == "" {
		metrics.ResolutionsTotal.WithLabelValues("none").Inc()
		return entities.MergedView{NoDrugDetected: true}
	}

	local, found := e.dataStore.Lookup(name)
	if !found {
		local, found = e.dataStore.FuzzyLookup(name)
	}

	var remoteLabel interfaces.LabelInfo
	var remoteReactions []string

	if !found {
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			info, err := e.labels.FetchLabel(ctx, name)
			if err != nil {
				logging.Warn("Remote label query failed", "drug", name, "error", err)
				metrics.RemoteQueryFailures.WithLabelValues("label").Inc()
				return
			}
			remoteLabel = info
		}()

		go func() {
			defer wg.Done()
			reactions, err := e.events.FetchReactions(ctx, name)
			if err != nil {
				logging.Warn("Remote event query failed", "drug", name, "error", err)
				metrics.RemoteQueryFailures.WithLabelValues("event").Inc()
				return
			}
			remoteReactions = reactions
		}()

		wg.Wait()
	}

	view := merge(name, candidate, local, found, remoteLabel, remoteReactions)

	if found {
		metrics.ResolutionsTotal.WithLabelValues("local").Inc()
	} else {
		metrics.ResolutionsTotal.WithLabelValues("remote").Inc()
	}

	return view
}

// merge applies the field precedence: local record wins over candidate,
// candidate wins over remote; maxDoseMg comes from the local record only.
func merge(name string, candidate entities.Candidate, local entities.ReferenceRecord, found bool,
	label interfaces.LabelInfo, reactions []string) entities.MergedView {

	view := entities.MergedView{
		Name:         name,
		Manufacturer: "Unknown",
		Batch:        candidate.Batch,
		Expiry:       candidate.Expiry,
		UsesLocal:    []string{},
		AdrsLocal:    []string{},
		UsesRemote:   []string{},
		AdrsReported: []string{},
		LocalMatch:   found,
	}

	if found {
		view.Name = local.Name
		if local.Manufacturer != "" {
			view.Manufacturer = local.Manufacturer
		}
		if view.Batch == "" {
			view.Batch = local.Batch
		}
		if view.Expiry == "" {
			view.Expiry = local.Expiry
		}
		if len(local.Uses) > 0 {
			view.UsesLocal = local.Uses
		}
		if len(local.Adrs) > 0 {
			view.AdrsLocal = local.Adrs
		}
		view.Dosage = local.Dosage
		view.MaxDoseMg = local.MaxDoseMg
		return view
	}

	if len(label.Uses) > 0 {
		view.UsesRemote = label.Uses
	}
	if len(reactions) > 0 {
		view.AdrsReported = reactions
	}
	view.Dosage = label.Dosage

	return view
}
