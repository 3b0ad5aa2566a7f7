// ABOUTME: Funnel graph generation
// ABOUTME: Renders stage counts and step conversion rates as a Graphviz graph
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/leadledger/db"
	"github.com/harperreed/leadledger/models"
)

type GraphGenerator struct {
	db *sql.DB
}

func NewGraphGenerator(database *sql.DB) *GraphGenerator {
	return &GraphGenerator{db: database}
}

// GenerateFunnelGraph renders the stored funnel as DOT source.
func (g *GraphGenerator) GenerateFunnelGraph(ctx context.Context) (string, error) {
	counts, err := db.FunnelCounts(ctx, g.db)
	if err != nil {
		return "", fmt.Errorf("failed to fetch funnel: %w", err)
	}
	return RenderFunnelGraph(ctx, counts)
}

// RenderFunnelGraph lays the funnel stages out top to bottom. Each node shows
// how many contacts reached at least that stage; edges carry the step
// conversion. Stages outside the funnel hang off the first stage.
func RenderFunnelGraph(ctx context.Context, counts []models.FunnelCount) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Lead Funnel")
	graph.SetRankDir(cgraph.TBRank)

	reached := ReachedCounts(counts)

	var first, prev *cgraph.Node
	prevCount := 0
	for i, stage := range models.FunnelStages {
		node, err := graph.CreateNodeByName(stage)
		if err != nil {
			return "", fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%d", stage, reached[stage]))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(stageColor(i))

		if first == nil {
			first = node
		}
		if prev != nil {
			edge, err := graph.CreateEdgeByName(stage, prev, node)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(conversion(reached[stage], prevCount))
		}
		prev = node
		prevCount = reached[stage]
	}

	for _, fc := range counts {
		if isFunnelStage(fc.Stage) {
			continue
		}
		node, err := graph.CreateNodeByName(fc.Stage)
		if err != nil {
			return "", fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%d", fc.Stage, fc.Count))
		node.SetShape("ellipse")
		node.SetStyle("dashed")
		edge, err := graph.CreateEdgeByName(fc.Stage, first, node)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetStyle("dotted")
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// ReachedCounts turns per-stage counts into "reached at least this stage"
// counts. A contact stored at booked has also been contacted and qualified.
func ReachedCounts(counts []models.FunnelCount) map[string]int {
	at := make(map[string]int, len(counts))
	for _, fc := range counts {
		at[fc.Stage] = fc.Count
	}

	reached := make(map[string]int, len(models.FunnelStages))
	running := 0
	for i := len(models.FunnelStages) - 1; i >= 0; i-- {
		stage := models.FunnelStages[i]
		running += at[stage]
		reached[stage] = running
	}
	return reached
}

func conversion(n, of int) string {
	if of == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(of))
}

func isFunnelStage(stage string) bool {
	for _, s := range models.FunnelStages {
		if s == stage {
			return true
		}
	}
	return false
}

var stageColors = []string{"lightgrey", "lightblue", "lightyellow", "orange", "lightgreen"}

func stageColor(i int) string {
	return stageColors[i%len(stageColors)]
}
