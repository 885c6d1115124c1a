package api

import (
	"math"

	"github.com/okian/wudao/internal/domain/catalog"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/pipeline"
	"github.com/okian/wudao/internal/domain/report"
	"github.com/okian/wudao/internal/domain/timeline"
)

type createSessionRequest struct {
	Kind string `json:"kind" validate:"required,oneof=image video"`
}

type sessionResponse struct {
	SessionID string     `json:"session_id"`
	Kind      media.Kind `json:"kind"`
}

type captureRequest struct {
	Name    string `json:"name" validate:"max=255"`
	DataURL string `json:"data_url" validate:"required,startswith=data:"`
}

type artifactResponse struct {
	ID       string     `json:"id"`
	Kind     media.Kind `json:"kind"`
	MIMEType string     `json:"mime_type"`
	Name     string     `json:"name"`
	Size     int        `json:"size"`
}

func artifactView(a media.Artifact) artifactResponse {
	return artifactResponse{
		ID:       a.ID,
		Kind:     a.Kind,
		MIMEType: a.MIMEType,
		Name:     a.Name,
		Size:     len(a.Data),
	}
}

type startAnalysisRequest struct {
	Routine string `json:"routine" validate:"max=100"`
}

type reportResponse struct {
	report.Report
	Grade        report.Grade                  `json:"grade"`
	MetricGrades map[report.Metric]report.Grade `json:"metric_grades"`
}

// analysisResponse carries only the payload of the current phase.
type analysisResponse struct {
	RunID    string          `json:"run_id,omitempty"`
	Phase    pipeline.Phase  `json:"phase"`
	Progress *int            `json:"progress,omitempty"`
	Report   *reportResponse `json:"report,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

func analysisView(snap pipeline.Snapshot) analysisResponse {
	st := snap.State
	out := analysisResponse{RunID: snap.RunID, Phase: st.Phase()}
	if p, ok := st.Progress(); ok {
		out.Progress = &p
	}
	if r, ok := st.Report(); ok {
		grades := make(map[report.Metric]report.Grade, len(r.Metrics))
		for m, v := range r.Metrics {
			grades[m] = report.GradeOf(v)
		}
		out.Report = &reportResponse{Report: r, Grade: report.GradeOf(r.OverallScore), MetricGrades: grades}
	}
	if reason, ok := st.Reason(); ok {
		out.Reason = reason
	}
	return out
}

type highlightResponse struct {
	Index    int            `json:"index"`
	Segment  report.Segment `json:"segment"`
	Changed  bool           `json:"changed"`
	Playing  bool           `json:"playing"`
	Position float64        `json:"position"`
}

type jumpRequest struct {
	Segment *int `json:"segment" validate:"required,gte=0"`
}

type playbackRequest struct {
	Playing  bool    `json:"playing"`
	Position float64 `json:"position" validate:"gte=0"`
}

type commandsResponse struct {
	Playing    bool                 `json:"playing"`
	Segment    *report.Segment      `json:"segment,omitempty"`
	Annotation *timeline.Annotation `json:"annotation,omitempty"`
	Commands   []timeline.Command   `json:"commands"`
}

type annotationRequest struct {
	Position *float64 `json:"position" validate:"required,gte=0"`
	Kind     string   `json:"kind" validate:"required,oneof=text drawing"`
	Content  string   `json:"content" validate:"max=2000"`
	Drawing  string   `json:"drawing" validate:"omitempty,startswith=data:image/"`
}

type annotationsResponse struct {
	Items []timeline.Annotation `json:"items"`
	Total int                   `json:"total"`
}

// catalogQuery is the query-string form of catalog.Criteria.
type catalogQuery struct {
	SearchTerm string   `validate:"max=100"`
	Tags       []string `validate:"dive,max=50"`
	MinRating  float64  `validate:"gte=0,lte=5"`
	PriceMin   *float64 `validate:"omitempty,gte=0"`
	PriceMax   *float64 `validate:"omitempty,gte=0"`
	Sort       string   `validate:"omitempty,oneof=rating price-asc price-desc popular"`
	Level      string   `validate:"max=20"`
}

func (q catalogQuery) criteria() catalog.Criteria {
	c := catalog.Criteria{
		SearchTerm:   q.SearchTerm,
		SelectedTags: q.Tags,
		MinRating:    q.MinRating,
		Sort:         catalog.SortKey(q.Sort),
		Level:        q.Level,
	}
	if q.PriceMin != nil || q.PriceMax != nil {
		r := catalog.PriceRange{Min: 0, Max: math.Inf(1)}
		if q.PriceMin != nil {
			r.Min = *q.PriceMin
		}
		if q.PriceMax != nil {
			r.Max = *q.PriceMax
		}
		c.Price = &r
	}
	return c
}

type catalogResponse[T any] struct {
	Items []T      `json:"items"`
	Total int      `json:"total"`
	Tags  []string `json:"tags"`
}
