package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/relay"
	"github.com/rezonia/einvoice-gateway/internal/store"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

// Config holds server configuration
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ShutdownGrace  time.Duration
	ForwardTimeout time.Duration
	DefaultMode    model.Mode
	Debug          bool
}

// Server represents the HTTP API server. It is both the relay that
// forwards sealed payloads to vendors and the control surface for batches.
type Server struct {
	config       *Config
	router       *gin.Engine
	forwarder    relay.Gateway
	registry     *vendor.Registry
	store        store.Store
	orchestrator *batch.Orchestrator
	logger       *zap.Logger
}

// Option configures a server
type Option func(*Server)

// WithForwarder sets the gateway /kick forwards to
func WithForwarder(g relay.Gateway) Option {
	return func(s *Server) {
		s.forwarder = g
	}
}

// WithRegistry sets the vendor adapters used for void and batches
func WithRegistry(r *vendor.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithStore sets the invoice store and the orchestrator over it
func WithStore(st store.Store, o *batch.Orchestrator) Option {
	return func(s *Server) {
		s.store = st
		s.orchestrator = o
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new API server
func NewServer(config *Config, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.ForwardTimeout <= 0 {
		config.ForwardTimeout = relay.DefaultForwardTimeout
	}
	if config.DefaultMode == "" {
		config.DefaultMode = model.ModeTest
	}

	s := &Server{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.forwarder == nil {
		s.forwarder = relay.NewForwarder(relay.WithForwardLogger(s.logger))
	}
	if s.registry == nil {
		s.registry = vendor.NewRegistry(s.forwarder, nil, vendor.WithLogger(s.logger))
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}
	if s.orchestrator == nil {
		s.orchestrator = batch.New(s.store, batch.WithLogger(s.logger))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(s.logger))
	s.router = router

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Relay
	s.router.POST("/kick", s.handleKick)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/vendors", s.handleVendors)

		v1.GET("/invoices", s.handleListInvoices)
		v1.POST("/invoices", s.handleQueueInvoices)
		v1.POST("/invoices/:vendor/void", s.handleVoid)

		v1.POST("/batches", s.handleStartBatch)
		v1.GET("/batches/:id", s.handleGetBatch)
		v1.POST("/batches/:id/pause", s.handleBatchControl)
		v1.POST("/batches/:id/resume", s.handleBatchControl)
		v1.POST("/batches/:id/abort", s.handleBatchControl)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	grace := s.config.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if job, ok := s.orchestrator.Active(); ok {
		s.logger.Info("aborting active batch", zap.String("job_id", job.ID()))
		job.Abort()
		job.Wait()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleKick(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, relay.Response{Error: "failed to read request body"})
		return
	}

	var in KickRequest
	if err := json.Unmarshal(body, &in); err != nil {
		c.JSON(http.StatusInternalServerError, relay.Response{Error: "Invalid JSON input"})
		return
	}

	platform := model.Vendor(strings.ToLower(in.Platform))
	if in.Platform == "" || len(in.Data) == 0 || string(in.Data) == "null" {
		c.JSON(http.StatusOK, relay.Response{Platform: model.VendorUnknown, Error: "Missing platform or data field"})
		return
	}

	req := &relay.Request{
		Platform:    platform,
		TestMode:    in.TestMode == nil || *in.TestMode,
		Action:      in.Action,
		InvoiceType: in.InvoiceType,
		Data:        in.Data,
	}
	if req.Action == "" {
		req.Action = relay.ActionCreate
	}
	if req.InvoiceType == "" {
		req.InvoiceType = model.CategoryB2C
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.ForwardTimeout)
	defer cancel()

	resp, err := s.forwarder.Kick(ctx, req)
	if err != nil {
		s.logger.Warn("kick failed",
			zap.String("platform", string(platform)),
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, relay.Response{Platform: platform, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVendors(c *gin.Context) {
	var out []VendorInfo
	for _, v := range s.registry.Vendors() {
		a, err := s.registry.GetAdapter(v)
		if err != nil {
			continue
		}
		out = append(out, VendorInfo{
			Vendor:         v,
			RequiredFields: a.Protocol().RequiredFields(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"vendors": out})
}

func (s *Server) handleListInvoices(c *gin.Context) {
	invoices, err := s.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list invoices", Details: err.Error()})
		return
	}
	if invoices == nil {
		invoices = []*model.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) handleQueueInvoices(c *gin.Context) {
	var invoices []*model.Invoice
	if err := c.ShouldBindJSON(&invoices); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice list", Details: err.Error()})
		return
	}
	if len(invoices) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty invoice list"})
		return
	}

	for _, inv := range invoices {
		inv.Normalize()
		if err := inv.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice " + inv.MerchantOrderNo, Details: err.Error()})
			return
		}
		inv.CalculateTotals()
	}

	if err := store.PutAll(c.Request.Context(), s.store, invoices); err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: "failed to queue invoices", Details: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, QueueResponse{Queued: len(invoices)})
}

func (s *Server) handleVoid(c *gin.Context) {
	adapter, ok := s.adapter(c, c.Param("vendor"))
	if !ok {
		return
	}

	var in VoidInvoiceRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	mode, ok := s.mode(c, in.Mode)
	if !ok {
		return
	}

	req := vendor.VoidRequest{
		InvoiceNumber: in.InvoiceNumber,
		Reason:        in.Reason,
		Category:      in.Category,
	}
	if in.InvoiceDate != nil {
		req.InvoiceDate = *in.InvoiceDate
	}

	res := adapter.Void(c.Request.Context(), req, mode)
	c.JSON(statusForResult(res), res)
}

func (s *Server) handleStartBatch(c *gin.Context) {
	var in StartBatchRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	adapter, ok := s.adapter(c, in.Vendor)
	if !ok {
		return
	}
	mode, ok := s.mode(c, in.Mode)
	if !ok {
		return
	}

	// the job outlives the request
	job, err := s.orchestrator.Start(context.Background(), adapter, mode)
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job.Summary())
}

func (s *Server) handleGetBatch(c *gin.Context) {
	job, err := s.orchestrator.Job(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, job.Summary())
}

func (s *Server) handleBatchControl(c *gin.Context) {
	job, err := s.orchestrator.Job(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}

	switch c.FullPath()[strings.LastIndex(c.FullPath(), "/")+1:] {
	case "pause":
		err = job.Pause()
	case "resume":
		err = job.Resume()
	case "abort":
		job.Abort()
		job.Wait()
	}
	if err != nil {
		c.JSON(statusForError(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, job.Summary())
}

func (s *Server) adapter(c *gin.Context, name string) (*vendor.Adapter, bool) {
	v, ok := model.ParseVendor(strings.ToLower(name))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unsupported platform: " + name})
		return nil, false
	}
	a, err := s.registry.GetAdapter(v)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return a, true
}

func (s *Server) mode(c *gin.Context, m model.Mode) (model.Mode, bool) {
	switch m {
	case "":
		return s.config.DefaultMode, true
	case model.ModeTest, model.ModeProduction:
		return m, true
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "mode must be test or production"})
	return "", false
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, batch.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrBatchRunning),
		errors.Is(err, batch.ErrEmptyQueue),
		errors.Is(err, batch.ErrNotRunning),
		errors.Is(err, batch.ErrNotPaused):
		return http.StatusConflict
	}
	if model.KindOf(err) == model.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func statusForResult(res model.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Kind {
	case model.KindValidation, model.KindConfiguration:
		return http.StatusBadRequest
	case model.KindRejected:
		return http.StatusUnprocessableEntity
	case model.KindNetwork, model.KindParse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
