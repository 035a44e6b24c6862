package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ttfbridge/host/internal/batch"
	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/nodeutil"
	"github.com/ttfbridge/host/internal/progress"
	"github.com/ttfbridge/host/internal/textutil"
)

type ScanTextNodesParams struct {
	NodeID      string `json:"nodeId"`
	UseChunking *bool  `json:"useChunking"`
	ChunkSize   *int   `json:"chunkSize"`
}

// TextNodeInfo describes one text node found by a scan.
type TextNodeInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       document.NodeType `json:"type"`
	Characters string            `json:"characters"`
	FontSize   float64           `json:"fontSize"`
	FontFamily string            `json:"fontFamily"`
	FontStyle  string            `json:"fontStyle"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Path       string            `json:"path"`
	Depth      int               `json:"depth"`
}

// ScanResult is returned by scan_text_nodes. The chunked and unchunked scans
// fill different counters.
type ScanResult struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Count          *int           `json:"count,omitempty"`
	TotalNodes     *int           `json:"totalNodes,omitempty"`
	TextNodeCount  *int           `json:"textNodeCount,omitempty"`
	ProcessedNodes *int           `json:"processedNodes,omitempty"`
	Chunks         *int           `json:"chunks,omitempty"`
	TextNodes      []TextNodeInfo `json:"textNodes"`
	CommandID      string         `json:"commandId"`
}

func textInfo(v nodeutil.Visit) (TextNodeInfo, bool) {
	t, ok := v.Node.(document.Text)
	if !ok || v.Node.Type() != document.TypeText {
		return TextNodeInfo{}, false
	}
	info := TextNodeInfo{
		ID:         t.ID(),
		Name:       stringOr(t.Name(), "Text"),
		Type:       t.Type(),
		Characters: t.Characters(),
		FontSize:   t.FontSize(),
		Path:       strings.Join(v.Path, " > "),
		Depth:      v.Depth,
	}
	if font, mixed := t.FontName(); !mixed {
		info.FontFamily, info.FontStyle = font.Family, font.Style
	}
	if p, ok := v.Node.(document.Positioned); ok {
		info.X, info.Y = p.X(), p.Y()
	}
	if r, ok := v.Node.(document.Resizable); ok {
		info.Width, info.Height = r.Width(), r.Height()
	}
	return info, true
}

// scanOutcome is the per-node result of a chunked scan. Every visited node
// counts as processed; Text is set for text nodes.
type scanOutcome struct {
	Text *TextNodeInfo
}

func (scanOutcome) Succeeded() bool { return true }

// ScanTextNodes lists the visible text nodes under a node. Chunked scans
// walk the collected nodes in paced chunks and stream partial results.
func (h *Handlers) ScanTextNodes(ctx context.Context, p ScanTextNodesParams) (*ScanResult, error) {
	if p.NodeID == "" {
		return nil, apperrors.MissingParam("nodeId")
	}
	tr := h.tracker("scan_text_nodes")
	n, err := h.lookup(ctx, p.NodeID, "Node with ID %s not found")
	if err != nil {
		tr.Send(progress.StatusError, 0, 0, 0, apperrors.GetMessage(err),
			map[string]any{"error": "Node not found: " + p.NodeID})
		return nil, err
	}
	label := stringOr(n.Name(), p.NodeID)

	if !orDefault(p.UseChunking, true) {
		tr.Send(progress.StatusStarted, 0, 1, 0, fmt.Sprintf("Starting scan of node %q without chunking", label), nil)
		found := []TextNodeInfo{}
		for _, v := range nodeutil.Collect(n) {
			if info, ok := textInfo(v); ok {
				found = append(found, info)
			}
		}
		tr.Send(progress.StatusCompleted, 100, len(found), len(found),
			fmt.Sprintf("Scan complete. Found %d text nodes.", len(found)),
			map[string]any{"textNodes": found})
		return &ScanResult{
			Success:   true,
			Message:   fmt.Sprintf("Scanned %d text nodes.", len(found)),
			Count:     ptr(len(found)),
			TextNodes: found,
			CommandID: tr.ID,
		}, nil
	}

	cfg := h.Config.Scan
	if p.ChunkSize != nil && *p.ChunkSize > 0 {
		cfg.ChunkSize = *p.ChunkSize
	}
	visits := nodeutil.Collect(n)
	chunks := batch.ChunkCount(len(visits), cfg.ChunkSize)
	tr.Send(progress.StatusStarted, 0, len(visits), 0,
		fmt.Sprintf("Starting chunked scan of node %q", label),
		map[string]any{"chunkSize": cfg.ChunkSize, "totalNodes": len(visits), "totalChunks": chunks})

	found := []TextNodeInfo{}
	sum, err := batch.Run(ctx, cfg, tr, visits, func(_ context.Context, v nodeutil.Visit) scanOutcome {
		if info, ok := textInfo(v); ok {
			return scanOutcome{Text: &info}
		}
		return scanOutcome{}
	}, batch.Hooks[nodeutil.Visit, scanOutcome]{
		BeforeChunk: func(st batch.State[scanOutcome]) (string, map[string]any) {
			return fmt.Sprintf("Processing chunk %d/%d", st.Chunk, st.Chunks), map[string]any{
				"currentChunk":   st.Chunk,
				"totalChunks":    st.Chunks,
				"textNodesFound": len(found),
				"totalNodes":     st.Total,
			}
		},
		AfterChunk: func(st batch.State[scanOutcome]) (string, map[string]any) {
			chunkResult := []TextNodeInfo{}
			for _, r := range st.ChunkResults {
				if r.Text != nil {
					chunkResult = append(chunkResult, *r.Text)
				}
			}
			found = append(found, chunkResult...)
			return fmt.Sprintf("Processed chunk %d/%d. Found %d text nodes so far.", st.Chunk, st.Chunks, len(found)), map[string]any{
				"currentChunk":   st.Chunk,
				"totalChunks":    st.Chunks,
				"processedNodes": st.Processed,
				"textNodesFound": len(found),
				"totalNodes":     st.Total,
				"chunkResult":    chunkResult,
			}
		},
	})
	if err != nil {
		tr.Send(progress.StatusError, 0, 0, 0, "Error scanning text nodes: "+err.Error(),
			map[string]any{"error": err.Error()})
		return nil, apperrors.StoreFailed("Error scanning text nodes", err)
	}

	tr.Send(progress.StatusCompleted, 100, sum.Total, sum.Total,
		fmt.Sprintf("Scan complete. Found %d text nodes.", len(found)),
		map[string]any{"textNodes": found, "processedNodes": sum.Total, "chunks": sum.Chunks})
	return &ScanResult{
		Success:        true,
		Message:        fmt.Sprintf("Chunked scan complete. Found %d text nodes.", len(found)),
		TotalNodes:     ptr(len(found)),
		TextNodeCount:  ptr(len(found)),
		ProcessedNodes: ptr(sum.Total),
		Chunks:         ptr(sum.Chunks),
		TextNodes:      found,
		CommandID:      tr.ID,
	}, nil
}

type TextReplacement struct {
	NodeID string  `json:"nodeId"`
	Text   *string `json:"text"`
}

type SetMultipleTextContentsParams struct {
	NodeID string            `json:"nodeId"`
	Text   []TextReplacement `json:"text"`
	// Strategy picks how mixed fonts are carried over: "", "prevail",
	// "strict" or "experimental".
	Strategy string `json:"strategy,omitempty"`
}

// ReplacementOutcome is the per-node record of a text replacement batch.
type ReplacementOutcome struct {
	Success        bool   `json:"success"`
	NodeID         string `json:"nodeId"`
	OriginalText   string `json:"originalText,omitempty"`
	TranslatedText string `json:"translatedText,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (o ReplacementOutcome) Succeeded() bool { return o.Success }

type ReplacementSummary struct {
	Success             bool                 `json:"success"`
	NodeID              string               `json:"nodeId"`
	ReplacementsApplied int                  `json:"replacementsApplied"`
	ReplacementsFailed  int                  `json:"replacementsFailed"`
	TotalReplacements   int                  `json:"totalReplacements"`
	Results             []ReplacementOutcome `json:"results"`
	CompletedInChunks   int                  `json:"completedInChunks"`
	CommandID           string               `json:"commandId"`
}

// SetMultipleTextContents replaces the characters of many text nodes in
// paced chunks, keeping each node's fonts.
func (h *Handlers) SetMultipleTextContents(ctx context.Context, p SetMultipleTextContentsParams) (*ReplacementSummary, error) {
	tr := h.tracker("set_multiple_text_contents")
	if p.NodeID == "" || p.Text == nil {
		const msg = "Missing required parameters: nodeId and text array"
		tr.Send(progress.StatusError, 0, 0, 0, msg, map[string]any{"error": msg})
		return nil, apperrors.New(apperrors.CodeMissingParam, msg)
	}
	strategy, ok := textutil.ParseStrategy(p.Strategy)
	if !ok {
		msg := fmt.Sprintf("Invalid strategy: %s", p.Strategy)
		tr.Send(progress.StatusError, 0, 0, 0, msg, map[string]any{"error": msg})
		return nil, apperrors.New(apperrors.CodeInvalidParam, msg)
	}
	opts := textutil.Options{Strategy: strategy}
	replace := func(ctx context.Context, r TextReplacement) ReplacementOutcome {
		return h.replaceText(ctx, r, opts)
	}
	cfg := h.Config.TextReplace
	total := len(p.Text)
	tr.Send(progress.StatusStarted, 0, total, 0,
		fmt.Sprintf("Starting text replacement for %d nodes", total),
		map[string]any{
			"totalReplacements": total,
			"totalChunks":       batch.ChunkCount(total, cfg.ChunkSize),
			"chunkSize":         cfg.ChunkSize,
		})

	sum, err := batch.Run(ctx, cfg, tr, p.Text, replace, batch.Hooks[TextReplacement, ReplacementOutcome]{
		BeforeChunk: func(st batch.State[ReplacementOutcome]) (string, map[string]any) {
			return fmt.Sprintf("Processing text replacements chunk %d/%d", st.Chunk, st.Chunks), map[string]any{
				"currentChunk": st.Chunk,
				"totalChunks":  st.Chunks,
				"successCount": st.Succeeded,
				"failureCount": st.Failed,
			}
		},
		Recover: func(r TextReplacement, rec any) ReplacementOutcome {
			return ReplacementOutcome{NodeID: r.NodeID, Error: fmt.Sprintf("Error applying replacement: %v", rec)}
		},
	})
	if err != nil {
		return nil, apperrors.StoreFailed("Text replacement interrupted", err)
	}

	tr.Send(progress.StatusCompleted, 100, total, sum.Total,
		fmt.Sprintf("Text replacement complete: %d successful, %d failed", sum.Succeeded, sum.Failed),
		map[string]any{
			"totalReplacements":   total,
			"replacementsApplied": sum.Succeeded,
			"replacementsFailed":  sum.Failed,
			"completedInChunks":   sum.Chunks,
			"results":             sum.Results,
		})
	return &ReplacementSummary{
		Success:             sum.Success(),
		NodeID:              p.NodeID,
		ReplacementsApplied: sum.Succeeded,
		ReplacementsFailed:  sum.Failed,
		TotalReplacements:   total,
		Results:             sum.Results,
		CompletedInChunks:   sum.Chunks,
		CommandID:           tr.ID,
	}, nil
}

func (h *Handlers) replaceText(ctx context.Context, r TextReplacement, opts textutil.Options) ReplacementOutcome {
	if r.NodeID == "" || r.Text == nil {
		return ReplacementOutcome{NodeID: stringOr(r.NodeID, "unknown"), Error: "Missing nodeId or text in replacement entry"}
	}
	n, err := h.Store.NodeByID(ctx, r.NodeID)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return ReplacementOutcome{NodeID: r.NodeID, Error: "Node not found: " + r.NodeID}
		}
		return ReplacementOutcome{NodeID: r.NodeID, Error: "Error applying replacement: " + err.Error()}
	}
	t, ok := n.(document.Text)
	if !ok || n.Type() != document.TypeText {
		return ReplacementOutcome{
			NodeID: r.NodeID,
			Error:  fmt.Sprintf("Node is not a text node: %s (type: %s)", r.NodeID, n.Type()),
		}
	}
	original := t.Characters()
	written, err := textutil.SetCharacters(ctx, h.Store, t, *r.Text, opts)
	if err != nil {
		return ReplacementOutcome{NodeID: r.NodeID, Error: "Error applying replacement: " + err.Error()}
	}
	if !written {
		return ReplacementOutcome{NodeID: r.NodeID, Error: "Error applying replacement: the host rejected the new characters"}
	}
	return ReplacementOutcome{Success: true, NodeID: r.NodeID, OriginalText: original, TranslatedText: *r.Text}
}
