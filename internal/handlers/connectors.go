package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ttfbridge/host/internal/document"
	apperrors "github.com/ttfbridge/host/internal/errors"
	"github.com/ttfbridge/host/internal/nodeutil"
	"github.com/ttfbridge/host/internal/progress"
)

type GetReactionsParams struct {
	NodeIDs []string `json:"nodeIds"`
}

type ReactionNode struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         document.NodeType   `json:"type"`
	Depth        int                 `json:"depth"`
	HasReactions bool                `json:"hasReactions"`
	Reactions    []document.Reaction `json:"reactions"`
	Path         string              `json:"path"`
}

type ReactionsResult struct {
	NodesCount         int            `json:"nodesCount"`
	NodesWithReactions int            `json:"nodesWithReactions"`
	Nodes              []ReactionNode `json:"nodes"`
}

// GetReactions searches each node and its visible descendants for prototype
// reactions. CHANGE_TO reactions are variant swaps and are left out.
func (h *Handlers) GetReactions(ctx context.Context, p GetReactionsParams) (*ReactionsResult, error) {
	if p.NodeIDs == nil {
		return nil, apperrors.Invalid(apperrors.MsgMissingNodeIDs)
	}
	tr := h.tracker("get_reactions")
	total := len(p.NodeIDs)
	tr.Send(progress.StatusStarted, 0, total, 0,
		fmt.Sprintf("Starting deep search for reactions in %d nodes and their children", total), nil)

	out := &ReactionsResult{NodesCount: total, Nodes: []ReactionNode{}}
	for i, id := range p.NodeIDs {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.StoreFailed("Failed to get reactions", err)
		}
		n, err := h.Store.NodeByID(ctx, id)
		if err != nil {
			tr.Send(progress.StatusInProgress, float64(i+1)/float64(total), total, i+1, "Node not found: "+id, nil)
			continue
		}
		for _, v := range nodeutil.Collect(n) {
			r, ok := v.Node.(document.Reactive)
			if !ok {
				continue
			}
			reactions := withoutVariantSwaps(r.Reactions())
			if len(reactions) == 0 {
				continue
			}
			out.Nodes = append(out.Nodes, ReactionNode{
				ID:           v.Node.ID(),
				Name:         v.Node.Name(),
				Type:         v.Node.Type(),
				Depth:        v.Depth,
				HasReactions: true,
				Reactions:    reactions,
				Path:         nodeutil.PathString(v.Node),
			})
		}
		tr.Send(progress.StatusInProgress, float64(i+1)/float64(total), total, i+1,
			fmt.Sprintf("Processed node %d/%d, found %d nodes with reactions", i+1, total, len(out.Nodes)), nil)
	}
	out.NodesWithReactions = len(out.Nodes)
	tr.Send(progress.StatusCompleted, 1, total, total,
		fmt.Sprintf("Completed deep search: found %d nodes with reactions.", len(out.Nodes)), nil)
	return out, nil
}

func withoutVariantSwaps(in []document.Reaction) []document.Reaction {
	var out []document.Reaction
	for _, r := range in {
		if r.Action != nil && r.Action.Type == "CHANGE_TO" {
			continue
		}
		swap := false
		for _, a := range r.Actions {
			if a.Type == "CHANGE_TO" {
				swap = true
				break
			}
		}
		if !swap {
			out = append(out, r)
		}
	}
	return out
}

type SetDefaultConnectorParams struct {
	ConnectorID string `json:"connectorId"`
}

type DefaultConnectorResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ConnectorID  string `json:"connectorId"`
	Exists       bool   `json:"exists,omitempty"`
	AutoSelected bool   `json:"autoSelected,omitempty"`
}

// SetDefaultConnector records the connector create_connections clones. With
// no id it keeps a still-valid stored connector, or adopts the first one on
// the current page.
func (h *Handlers) SetDefaultConnector(ctx context.Context, p SetDefaultConnectorParams) (*DefaultConnectorResult, error) {
	if h.Storage == nil {
		return nil, apperrors.New(apperrors.CodeStorageQueryFailed, "Client storage is not available")
	}
	if p.ConnectorID != "" {
		n, err := h.lookup(ctx, p.ConnectorID, "Connector node not found with ID: %s")
		if err != nil {
			return nil, err
		}
		if n.Type() != document.TypeConnector {
			return nil, apperrors.Unsupported("Node is not a connector: %s", p.ConnectorID)
		}
		if err := h.Storage.SetValue(KeyDefaultConnectorID, p.ConnectorID); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageSaveFailed, "Failed to save default connector", err)
		}
		return &DefaultConnectorResult{
			Success:     true,
			Message:     "Default connector set to: " + p.ConnectorID,
			ConnectorID: p.ConnectorID,
		}, nil
	}

	var stored string
	if ok, err := h.Storage.GetValue(KeyDefaultConnectorID, &stored); err != nil {
		log.Printf("handlers: reading default connector: %v", err)
	} else if ok && stored != "" {
		if n, err := h.Store.NodeByID(ctx, stored); err == nil && n.Type() == document.TypeConnector {
			return &DefaultConnectorResult{
				Success:     true,
				Message:     "Default connector is already set to: " + stored,
				ConnectorID: stored,
				Exists:      true,
			}, nil
		}
	}

	found := nodeutil.FindAll(h.Store.CurrentPage(ctx), nodeutil.OfTypes(document.TypeConnector))
	if len(found) == 0 {
		return nil, apperrors.NotFoundf("Failed to find a connector: No connector found in the current page. Please create a connector in Figma first or specify a connector ID.")
	}
	id := found[0].ID()
	if err := h.Storage.SetValue(KeyDefaultConnectorID, id); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageSaveFailed, "Failed to save default connector", err)
	}
	return &DefaultConnectorResult{
		Success:      true,
		Message:      "Automatically found and set default connector to: " + id,
		ConnectorID:  id,
		AutoSelected: true,
	}, nil
}

const noDefaultConnectorMsg = "No default connector set. Please try one of the following options to create connections:\n" +
	"1. Create a connector in FigJam and copy/paste it to your current page, then run the \"set_default_connector\" command.\n" +
	"2. Select an existing connector on the current page, then run the \"set_default_connector\" command."

// connectorFonts are tried in order when the default connector has no
// loadable label font.
var connectorFonts = []document.FontName{
	{Family: "Inter", Style: "Regular"},
	{Family: "Inter", Style: "Medium"},
	{Family: "System", Style: "Regular"},
}

const (
	cursorSize = 48
	cursorName = "TTF_Connector / Mouse Cursor"
	cursorSVG  = `<svg width="48" height="48" viewBox="0 0 48 48" fill="none" xmlns="http://www.w3.org/2000/svg">` +
		`<path d="M32 20L16 14L22 30L25 23L32 20Z" fill="#202125"/></svg>`
)

type Connection struct {
	StartNodeID string `json:"startNodeId"`
	EndNodeID   string `json:"endNodeId"`
	Text        string `json:"text,omitempty"`
}

type CreateConnectionsParams struct {
	Connections []Connection `json:"connections"`
}

// ConnectionRecord is the per-connection result. Error is set instead of
// the id fields when the connection could not be drawn. TextError is set
// when the connector was drawn but its label could not be written.
type ConnectionRecord struct {
	ID                  string      `json:"id,omitempty"`
	OriginalStartNodeID string      `json:"originalStartNodeId,omitempty"`
	OriginalEndNodeID   string      `json:"originalEndNodeId,omitempty"`
	UsedStartNodeID     string      `json:"usedStartNodeId,omitempty"`
	UsedEndNodeID       string      `json:"usedEndNodeId,omitempty"`
	Text                string      `json:"text"`
	TextError           string      `json:"textError,omitempty"`
	Error               string      `json:"error,omitempty"`
	ConnectionInfo      *Connection `json:"connectionInfo,omitempty"`
}

type ConnectionsResult struct {
	Success     bool               `json:"success"`
	Count       int                `json:"count"`
	Connections []ConnectionRecord `json:"connections"`
}

// CreateConnections draws one connector per connection by cloning the
// default connector. Endpoints nested inside instances cannot hold a
// connector, so they are replaced by a cursor proxy placed over the nested
// node; one proxy is made per nested id per call.
func (h *Handlers) CreateConnections(ctx context.Context, p CreateConnectionsParams) (*ConnectionsResult, error) {
	if len(p.Connections) == 0 {
		return nil, apperrors.Invalid("Missing or invalid connections parameter")
	}
	template, err := h.defaultConnector(ctx)
	if err != nil {
		return nil, err
	}

	tr := h.tracker("create_connections")
	total := len(p.Connections)
	tr.Send(progress.StatusStarted, 0, total, 0, fmt.Sprintf("Starting to create %d connections", total), nil)

	proxies := make(map[string]string)
	out := &ConnectionsResult{Success: true, Connections: make([]ConnectionRecord, 0, total)}
	for i, c := range p.Connections {
		rec, err := h.connect(ctx, template, c, proxies)
		if err != nil {
			info := c
			rec = ConnectionRecord{Error: apperrors.GetMessage(err), ConnectionInfo: &info}
			tr.Send(progress.StatusInProgress, float64(i+1)/float64(total), total, i+1,
				"Error creating connection: "+rec.Error, nil)
		} else {
			tr.Send(progress.StatusInProgress, float64(i+1)/float64(total), total, i+1,
				fmt.Sprintf("Created connection %d/%d", i+1, total), nil)
		}
		out.Connections = append(out.Connections, rec)
	}
	out.Count = len(out.Connections)
	tr.Send(progress.StatusCompleted, 1, total, total, fmt.Sprintf("Completed creating %d connections", total), nil)
	return out, nil
}

func (h *Handlers) defaultConnector(ctx context.Context) (document.Connector, error) {
	var id string
	if h.Storage != nil {
		if _, err := h.Storage.GetValue(KeyDefaultConnectorID, &id); err != nil {
			log.Printf("handlers: reading default connector: %v", err)
		}
	}
	if id == "" {
		return nil, apperrors.New(apperrors.CodeMissingParam, noDefaultConnectorMsg)
	}
	n, err := h.lookup(ctx, id, "Default connector not found with ID: %s")
	if err != nil {
		return nil, err
	}
	conn, ok := n.(document.Connector)
	if !ok || n.Type() != document.TypeConnector {
		return nil, apperrors.Unsupported("Node is not a connector: %s", id)
	}
	return conn, nil
}

func (h *Handlers) connect(ctx context.Context, template document.Connector, c Connection, proxies map[string]string) (ConnectionRecord, error) {
	startID, err := h.endpoint(ctx, c.StartNodeID, "start", proxies)
	if err != nil {
		return ConnectionRecord{}, err
	}
	endID, err := h.endpoint(ctx, c.EndNodeID, "end", proxies)
	if err != nil {
		return ConnectionRecord{}, err
	}
	start, err := h.lookup(ctx, startID, "Start node not found with ID: %s")
	if err != nil {
		return ConnectionRecord{}, err
	}
	end, err := h.lookup(ctx, endID, "End node not found with ID: %s")
	if err != nil {
		return ConnectionRecord{}, err
	}

	cloned, err := template.Clone()
	if err != nil {
		return ConnectionRecord{}, apperrors.StoreFailed("Error cloning connector", err)
	}
	conn := cloned.(document.Connector)
	conn.SetName(fmt.Sprintf("TTF_Connector/%s/%s", start.ID(), end.ID()))
	if err := conn.SetConnectorStart(document.ConnectorEndpoint{EndpointNodeID: start.ID(), Magnet: "AUTO"}); err != nil {
		return ConnectionRecord{}, apperrors.StoreFailed("Error setting connector start", err)
	}
	if err := conn.SetConnectorEnd(document.ConnectorEndpoint{EndpointNodeID: end.ID(), Magnet: "AUTO"}); err != nil {
		return ConnectionRecord{}, apperrors.StoreFailed("Error setting connector end", err)
	}
	rec := ConnectionRecord{
		ID:                  conn.ID(),
		OriginalStartNodeID: c.StartNodeID,
		OriginalEndNodeID:   c.EndNodeID,
		UsedStartNodeID:     start.ID(),
		UsedEndNodeID:       end.ID(),
		Text:                c.Text,
	}
	if c.Text != "" {
		if err := h.labelConnector(ctx, conn, c.Text); err != nil {
			log.Printf("handlers: labelling connector %s: %v", conn.ID(), err)
			return ConnectionRecord{
				ID:                  conn.ID(),
				OriginalStartNodeID: c.StartNodeID,
				OriginalEndNodeID:   c.EndNodeID,
				TextError:           apperrors.GetMessage(err),
			}, nil
		}
	}
	return rec, nil
}

// endpoint returns the id the connector attaches to for id, creating a
// cursor proxy for nested ids.
func (h *Handlers) endpoint(ctx context.Context, id, which string, proxies map[string]string) (string, error) {
	if !strings.Contains(id, ";") {
		return id, nil
	}
	if proxy, ok := proxies[id]; ok {
		return proxy, nil
	}
	proxy, err := h.cursorProxy(ctx, id)
	if err != nil {
		log.Printf("handlers: cursor proxy for %s: %v", id, err)
		return "", apperrors.StoreFailed(fmt.Sprintf("Failed to create cursor node for nested %s node: %s", which, id), err)
	}
	proxies[id] = proxy
	return proxy, nil
}

// cursorProxy places a cursor over the nested node targetID, inside the
// nearest ancestor that can hold an unmanaged child.
func (h *Handlers) cursorProxy(ctx context.Context, targetID string) (string, error) {
	target, err := h.Store.NodeByID(ctx, targetID)
	if err != nil {
		return "", err
	}
	parent := proxyParent(target)
	if parent == nil {
		parent = h.Store.CurrentPage(ctx)
	}

	cursor, err := h.Store.CreateNodeFromSVG(ctx, cursorSVG)
	if err != nil {
		return "", err
	}
	if err := placeCursor(cursor, target, parent); err != nil {
		if rmErr := cursor.Remove(); rmErr != nil {
			log.Printf("handlers: removing cursor %s: %v", cursor.ID(), rmErr)
		}
		return "", err
	}
	return cursor.ID(), nil
}

// placeCursor styles cursor and centres it over target inside parent.
func placeCursor(cursor, target document.Node, parent document.Container) error {
	cursor.SetName(cursorName)
	if r, ok := cursor.(document.Resizable); ok {
		if err := r.Resize(cursorSize, cursorSize); err != nil {
			return err
		}
	}
	if err := styleCursor(cursor); err != nil {
		return err
	}
	if parent.Type() != document.TypePage {
		if err := parent.AppendChild(cursor); err != nil {
			return err
		}
	}
	if al, ok := parent.(document.AutoLayout); ok && al.Layout().Mode != "NONE" {
		if lc, ok := cursor.(document.LayoutChild); ok {
			if err := lc.SetLayoutPositioning("ABSOLUTE"); err != nil {
				return err
			}
		}
	}

	box := boundsOf(target)
	if box == nil {
		return errors.New("nested node has no bounding box")
	}
	var ox, oy float64
	if parent.Type() != document.TypePage {
		if pb := boundsOf(parent); pb != nil {
			ox, oy = pb.X, pb.Y
		}
	}
	if pos, ok := cursor.(document.Positioned); ok {
		pos.SetPosition(box.X-ox+box.Width/2-cursorSize/2, box.Y-oy+box.Height/2-cursorSize/2)
	}
	return nil
}

func proxyParent(target document.Node) document.Container {
	for _, a := range document.Ancestors(target) {
		switch a.Type() {
		case document.TypeInstance, document.TypeComponent, document.TypeComponentSet, document.TypeDocument:
			continue
		}
		if strings.Contains(a.ID(), ";") {
			continue
		}
		if c, ok := a.(document.Container); ok {
			return c
		}
	}
	return nil
}

func boundsOf(n document.Node) *document.Rect {
	if b, ok := n.(document.Bounded); ok {
		return b.AbsoluteBoundingBox()
	}
	return nil
}

// styleCursor outlines the first vector of the cursor and gives it a soft
// shadow.
func styleCursor(cursor document.Node) error {
	vectors := nodeutil.FindAll(cursor, nodeutil.OfTypes(document.TypeVector))
	if len(vectors) == 0 {
		return nil
	}
	v := vectors[0]
	var errs []error
	if f, ok := v.(document.Fillable); ok {
		errs = append(errs, f.SetFills([]document.Paint{document.SolidPaint(0, 0, 0, 1)}))
	}
	if s, ok := v.(document.Strokable); ok {
		errs = append(errs,
			s.SetStrokes([]document.Paint{document.SolidPaint(1, 1, 1, 1)}),
			s.SetStrokeWeight(2),
			s.SetStrokeAlign("OUTSIDE"),
		)
	}
	if e, ok := v.(document.Effected); ok {
		errs = append(errs, e.SetEffects([]document.Effect{{
			Type:      "DROP_SHADOW",
			Color:     &document.Color{R: 0, G: 0, B: 0, A: ptr(0.3)},
			Offset:    &document.Vector{X: 1, Y: 1},
			Radius:    2,
			Spread:    ptr(0.0),
			Visible:   true,
			BlendMode: "NORMAL",
		}}))
	}
	return errors.Join(errs...)
}

// labelConnector writes text onto the connector, loading the connector's own
// font or the first loadable fallback.
func (h *Handlers) labelConnector(ctx context.Context, conn document.Connector, text string) error {
	var tried []string
	if font, ok := conn.TextFontName(); ok {
		err := h.Store.LoadFont(ctx, font)
		if err == nil {
			return h.writeLabel(conn, text)
		}
		tried = append(tried, fmt.Sprintf("%s: %v", font, err))
	}
	for _, font := range connectorFonts {
		err := h.Store.LoadFont(ctx, font)
		if err != nil {
			tried = append(tried, fmt.Sprintf("%s: %v", font, err))
			continue
		}
		if err := conn.SetTextFontName(font); err != nil {
			return apperrors.StoreFailed("Error setting connector font", err)
		}
		return h.writeLabel(conn, text)
	}
	return apperrors.New(apperrors.CodeStoreFailed, "Failed to load any font: "+strings.Join(tried, "; "))
}

func (h *Handlers) writeLabel(conn document.Connector, text string) error {
	if err := conn.SetTextCharacters(text); err != nil {
		return apperrors.StoreFailed("Error setting connector text", err)
	}
	return nil
}
