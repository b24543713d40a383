package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/export"
	"github.com/gompdf/gomprova/internal/layout"
	"github.com/gompdf/gomprova/internal/preview"
	"github.com/gompdf/gomprova/internal/workspace"
)

// staleRetries bounds how often a read retries a result invalidated by a
// concurrent edit
const staleRetries = 3

func (s *Server) current(ctx context.Context) (*workspace.Snapshot, error) {
	var err error
	for i := 0; i < staleRetries; i++ {
		var snap *workspace.Snapshot
		snap, err = s.deps.Session.Current(ctx)
		if !errors.Is(err, workspace.ErrStale) {
			return snap, err
		}
	}
	return nil, err
}

type documentResponse struct {
	Template      string          `json:"template"`
	Composite     bool            `json:"composite"`
	Columns       int             `json:"columns"`
	Category      string          `json:"category"`
	Grade         string          `json:"grade"`
	Class         string          `json:"class"`
	Subjects      []string        `json:"subjects"`
	ActiveSubject string          `json:"active_subject,omitempty"`
	Blocks        []content.Block `json:"blocks"`
	ContentPages  int             `json:"content_pages"`
	TotalPages    int             `json:"total_pages"`
	Key           string          `json:"key"`
}

func (s *Server) getDocument(c *gin.Context) {
	snap, err := s.current(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	sess := s.deps.Session
	category, grade, class := sess.Meta()
	policy := snap.Params.Policy
	RespondOK(c, documentResponse{
		Template:      snap.Params.Template,
		Composite:     policy.Composite,
		Columns:       policy.Columns,
		Category:      category,
		Grade:         grade,
		Class:         class,
		Subjects:      sess.Subjects(),
		ActiveSubject: sess.ActiveSubject(),
		Blocks:        snap.Blocks,
		ContentPages:  snap.Document.ContentPages,
		TotalPages:    snap.Document.Total,
		Key:           snap.Key,
	})
}

func (s *Server) putTemplate(c *gin.Context) {
	var body struct {
		Template string `json:"template" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.deps.Session.SetTemplate(body.Template); err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Schedule()
	RespondOK(c, gin.H{"template": body.Template, "policy": config.PolicyFor(body.Template)})
}

func (s *Server) putMeta(c *gin.Context) {
	var body struct {
		Category string `json:"category"`
		Grade    string `json:"grade"`
		Class    string `json:"class"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	s.deps.Session.SetMeta(body.Category, body.Grade, body.Class)
	s.deps.Session.Schedule()
	RespondOK(c, body)
}

type subjectBody struct {
	Subject string `json:"subject" binding:"required"`
}

func (s *Server) postSubject(c *gin.Context) {
	var body subjectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	s.deps.Session.AddSubject(body.Subject)
	s.deps.Session.Schedule()
	RespondOK(c, gin.H{"subjects": s.deps.Session.Subjects(), "active_subject": s.deps.Session.ActiveSubject()})
}

func (s *Server) deleteSubject(c *gin.Context) {
	s.deps.Session.RemoveSubject(c.Param("name"))
	s.deps.Session.Schedule()
	RespondOK(c, gin.H{"subjects": s.deps.Session.Subjects(), "active_subject": s.deps.Session.ActiveSubject()})
}

func (s *Server) putActiveSubject(c *gin.Context) {
	var body subjectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.deps.Session.SetActiveSubject(body.Subject); err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"active_subject": body.Subject, "blocks": s.deps.Session.VisibleBlocks()})
}

func (s *Server) postBlock(c *gin.Context) {
	var body struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	kind, err := content.ParseKind(body.Kind)
	if err != nil {
		respondErr(c, err)
		return
	}
	b, err := s.deps.Session.AddBlock(kind)
	if err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Schedule()
	c.JSON(http.StatusCreated, b)
}

func (s *Server) putBlock(c *gin.Context) {
	var b content.Block
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if err := s.deps.Session.ReplaceBlock(id, b); err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Schedule()
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteBlock(c *gin.Context) {
	if err := s.deps.Session.DeleteBlock(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Schedule()
	c.Status(http.StatusNoContent)
}

func (s *Server) moveBlock(c *gin.Context) {
	var body struct {
		To *int `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.deps.Session.MoveBlock(c.Param("id"), *body.To); err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Schedule()
	RespondOK(c, gin.H{"blocks": s.deps.Session.Blocks()})
}

func (s *Server) getConfig(c *gin.Context) {
	doc := s.deps.Session.Store().Document()
	RespondOK(c, gin.H{
		"categories":          doc.Categories,
		"grades":              doc.Grades,
		"classes":             doc.Classes,
		"logo_url":            doc.LogoURL,
		"templates":           doc.Templates,
		"single_subject":      config.SingleSubjectTemplates(),
		"composite_templates": config.CompositeTemplates(),
		"version":             s.deps.Session.Store().Version(),
	})
}

func (s *Server) putLogo(c *gin.Context) {
	var body struct {
		LogoURL string `json:"logo_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	s.deps.Session.Store().SetLogoURL(body.LogoURL)
	s.deps.Session.Schedule()
	RespondOK(c, gin.H{"logo_url": body.LogoURL})
}

type sheetSummary struct {
	Number int      `json:"number"`
	Kind   string   `json:"kind"`
	Blocks []int    `json:"blocks"`
	Groups []string `json:"groups,omitempty"`
}

func summarize(sh layout.Sheet) sheetSummary {
	out := sheetSummary{Number: sh.Number, Kind: sh.Kind.String(), Blocks: []int{}}
	for _, it := range sh.Items {
		switch it.Kind {
		case layout.ItemBlock:
			out.Blocks = append(out.Blocks, it.Block.Number)
		case layout.ItemGroupTitle:
			out.Groups = append(out.Groups, it.Text)
		}
	}
	return out
}

func (s *Server) previewResponse(c *gin.Context, snap *workspace.Snapshot) {
	nav := s.deps.Session.Navigator()
	cur := nav.Current()
	resp := gin.H{"current": cur, "total": nav.Total()}
	if cur < len(snap.Sheets) {
		sh := snap.Sheets[cur]
		resp["sheet"] = summarize(sh)
		w, _ := strconv.ParseFloat(c.Query("width"), 64)
		h, _ := strconv.ParseFloat(c.Query("height"), 64)
		if w > 0 && h > 0 {
			resp["scale"] = preview.FitScale(preview.Size{Width: w, Height: h}, preview.Size{Width: sh.Width, Height: sh.Height})
		}
	}
	RespondOK(c, resp)
}

func (s *Server) getPreview(c *gin.Context) {
	snap, err := s.current(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	s.previewResponse(c, snap)
}

func (s *Server) previewNext(c *gin.Context) {
	snap, err := s.current(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Navigator().Next()
	s.previewResponse(c, snap)
}

func (s *Server) previewPrevious(c *gin.Context) {
	snap, err := s.current(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	s.deps.Session.Navigator().Previous()
	s.previewResponse(c, snap)
}

func (s *Server) sheetImage(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid sheet number %q", c.Param("n")))
		return
	}
	if s.deps.Capturer == nil {
		RespondError(c, http.StatusNotImplemented, "no_renderer", errors.New("no renderer configured"))
		return
	}
	snap, err := s.current(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if n < 1 || n > len(snap.Sheets) {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("sheet %d of %d", n, len(snap.Sheets)))
		return
	}
	img, err := s.deps.Capturer.Capture(c.Request.Context(), snap.Sheets[n-1])
	if err != nil {
		respondErr(c, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		respondErr(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) exportPDF(c *gin.Context) {
	if s.deps.Capturer == nil {
		RespondError(c, http.StatusNotImplemented, "no_renderer", errors.New("no renderer configured"))
		return
	}
	snap, err := s.current(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	p := snap.Params
	meta := export.Meta{
		Template:  p.Template,
		Category:  p.Category,
		Grade:     p.Grade,
		Class:     p.Class,
		Composite: p.Policy.Composite,
	}
	var buf bytes.Buffer
	if err := s.deps.Pipeline.Run(c.Request.Context(), snap.Sheets, meta, s.deps.Capturer, export.NewPDFSink(&buf)); err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(meta)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
