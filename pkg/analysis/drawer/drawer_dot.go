// Package drawer renders an executed pipeline run as a DOT graph: the
// step chain from start to end, with the models attempted at each step as
// satellite vertices. When a measure is attached, step vertices carry
// average durations and attempt edges are coloured on a blue-to-red heat
// scale.
package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-analysis/pkg/analysis/measure"
)

// DOTDrawer is a drawer that creates a DOT file with the run graph.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	steps    map[string]struct{}
	fileName string
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer(fileName string) *DOTDrawer {
	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.New(graph.StringHash, graph.Directed()),
		steps:    make(map[string]struct{}),
	}
}

// AddStep adds a step vertex to the run graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	d.steps[name] = struct{}{}

	return nil
}

// AddAttempt adds a model attempt vertex linked to its step. The same
// model may back several steps, so an existing vertex is reused.
func (d *DOTDrawer) AddAttempt(stepName, modelID string, failed bool) error {
	err := d.graph.AddVertex(modelID, graph.VertexAttribute("shape", "ellipse"))
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(err, "unable to add attempt vertex")
	}

	if failed {
		_, properties, err := d.graph.VertexWithProperties(modelID)
		if err != nil {
			return errors.Wrap(err, "unable to get attempt vertex properties")
		}
		properties.Attributes["color"] = "red"
	}

	err = d.graph.AddEdge(stepName, modelID, graph.EdgeAttribute("style", "dashed"))
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add attempt edge from %s to %s", stepName, modelID)
	}

	return nil
}

// AddLink adds a link between parent and child steps.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw creates a DOT file with the run graph.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = dot(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", d.fileName)
	}

	return nil
}

const maxRGB = 240

// AddMeasure decorates the run graph with the collected metrics: average
// step durations as labels, attempt edges coloured by average attempt
// duration, and the run total on the end vertex.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	allAttemptElapsed := make(map[time.Duration]string)
	sortedAttemptElapsed := []time.Duration{}

	for _, step := range msr.AllMetrics() {
		for _, info := range step.AVGAttemptDuration() {
			if info.Elapsed == 0 {
				continue
			}

			if _, ok := allAttemptElapsed[info.Elapsed]; ok {
				continue
			}

			allAttemptElapsed[info.Elapsed] = ""

			sortedAttemptElapsed = append(sortedAttemptElapsed, info.Elapsed)
		}
	}

	if len(sortedAttemptElapsed) > 0 {
		sort.Slice(sortedAttemptElapsed, func(i, j int) bool {
			return sortedAttemptElapsed[i] > sortedAttemptElapsed[j]
		})

		maxValue := sortedAttemptElapsed[0]
		minValue := sortedAttemptElapsed[len(sortedAttemptElapsed)-1]

		for curr := range allAttemptElapsed {
			fraction := time.Duration(1)
			if maxValue > minValue {
				fraction = (curr - minValue) / (maxValue - minValue)
			}

			red := maxRGB * fraction
			blue := -maxRGB*fraction + maxRGB

			heatColor, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
			if err != nil {
				return errors.Wrap(err, "unable to get colour")
			}

			allAttemptElapsed[curr] = heatColor.ToHEX().String()
		}
	}

	err := d.updateMetrics(msr, allAttemptElapsed)
	if err != nil {
		return errors.Wrap(err, "unable to update metrics")
	}

	if total := msr.RunDuration(); total > 0 {
		_, properties, err := d.graph.VertexWithProperties("end")
		if err != nil {
			return errors.Wrap(err, "unable to get end vertex properties")
		}
		properties.Attributes["xlabel"] = total.String()
	}

	return nil
}

func (d *DOTDrawer) updateMetrics(msr measure.Measure, allAttemptElapsed map[time.Duration]string) error {
	for name, step := range msr.AllMetrics() {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		stepAvg := step.AVGDuration()
		if stepAvg != 0 {
			properties.Attributes["xlabel"] = stepAvg.String()
		}

		for modelID, info := range step.AVGAttemptDuration() {
			if info.Elapsed == 0 {
				continue
			}

			err := d.graph.UpdateEdge(name, modelID,
				graph.EdgeAttribute("style", "dashed"),
				graph.EdgeAttribute("label", info.Elapsed.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", allAttemptElapsed[info.Elapsed]), //nolint
			)
			if err != nil {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot[K comparable, T any](g graph.Graph[K, T], wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, options...)
	if err != nil {
		return fmt.Errorf("failed to generate DOT description: %w", err)
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute is a functional option for the [DOT] method.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

func generateDOT[K comparable, T any](gra graph.Graph[K, T], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for vertex, adjacencies := range adjacencyMap {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		htmlAttributes := make(map[string]string)

		if xlabel, ok := sourceProperties.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)

			delete(sourceProperties.Attributes, "xlabel")
		}

		stmt := statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
			HTMLAttributes:   htmlAttributes,
		}
		desc.Statements = append(desc.Statements, stmt)

		for adjacency, edge := range adjacencies {
			stmt := statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			}
			desc.Statements = append(desc.Statements, stmt)
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
