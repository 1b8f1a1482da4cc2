package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"nivaran-be/events"
	"nivaran-be/logger"
	"nivaran-be/models"
	"nivaran-be/query"
	"nivaran-be/store"
)

var (
	ErrForbidden    = errors.New("issue not assigned to this staff member")
	ErrInvalidImage = errors.New("invalid image")
)

const recentLimit = 8

// SupervisorService covers field supervisors working their assigned issues.
type SupervisorService struct {
	issues *IssueService
	store  store.Store
	images store.ImageStore
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

// NewSupervisorService wires the supervisor workflows. images may be nil, in
// which case uploads are kept inline as data URLs.
func NewSupervisorService(issues *IssueService, st store.Store, images store.ImageStore, bus events.Bus, log *logger.Logger) *SupervisorService {
	return &SupervisorService{
		issues: issues,
		store:  st,
		images: images,
		bus:    bus,
		log:    log.With("service", "SupervisorService"),
		now:    time.Now,
	}
}

// IssueDetail is an issue with the supervisor's progress and its effective
// location.
type IssueDetail struct {
	Issue      models.Issue           `json:"issue"`
	Supervisor models.SupervisorState `json:"supervisor"`
	Location   models.Location        `json:"location"`
}

func (s *SupervisorService) Detail(ctx context.Context, id string) (IssueDetail, error) {
	issue, err := s.issues.Get(id)
	if err != nil {
		return IssueDetail{}, err
	}
	state, err := s.store.SupervisorState(ctx, id)
	if err != nil {
		return IssueDetail{}, fmt.Errorf("load supervisor state: %w", err)
	}
	loc, err := s.issues.Location(ctx, id)
	if err != nil {
		return IssueDetail{}, err
	}
	return IssueDetail{Issue: issue, Supervisor: state, Location: loc}, nil
}

func (s *SupervisorService) MyIssues(staffName string) []models.Issue {
	return query.AssignedTo(s.issues.Snapshot(), staffName)
}

type Dashboard struct {
	Metrics    query.Metrics         `json:"metrics"`
	ByDay      []query.DayCount      `json:"byDay"`
	ByCategory []query.CategoryCount `json:"byCategory"`
	Weekly     []query.WeekCount     `json:"weekly"`
	Recent     []models.Issue        `json:"recent"`
}

func (s *SupervisorService) Dashboard(staffName string) Dashboard {
	mine := s.MyIssues(staffName)
	return Dashboard{
		Metrics:    query.ComputeMetrics(mine),
		ByDay:      query.CountByDay(mine),
		ByCategory: query.CountByCategory(mine),
		Weekly:     query.WeeklyReports(mine),
		Recent:     query.Recent(mine, recentLimit),
	}
}

func (s *SupervisorService) Acknowledge(ctx context.Context, actor models.Session, id string) (models.SupervisorState, error) {
	if err := s.authorize(actor, id); err != nil {
		return models.SupervisorState{}, err
	}
	state, err := s.store.Acknowledge(ctx, id, s.now())
	if err != nil {
		return state, fmt.Errorf("acknowledge: %w", err)
	}
	s.publish(ctx, id, state)
	return state, nil
}

type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// AddImage attaches an evidence photo. It is stored in the image store when
// one is configured; without one, or when the upload fails, the photo is
// kept inline as a data URL.
func (s *SupervisorService) AddImage(ctx context.Context, actor models.Session, id string, up Upload) (models.SupervisorState, error) {
	if err := s.authorize(actor, id); err != nil {
		return models.SupervisorState{}, err
	}
	if len(up.Data) == 0 {
		return models.SupervisorState{}, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return models.SupervisorState{}, fmt.Errorf("%w: content type %q", ErrInvalidImage, up.ContentType)
	}

	url := s.upload(ctx, actor, id, up)
	state, err := s.store.AddImage(ctx, id, url)
	if err != nil {
		return state, fmt.Errorf("add image: %w", err)
	}
	s.publish(ctx, id, state)
	return state, nil
}

func (s *SupervisorService) upload(ctx context.Context, actor models.Session, id string, up Upload) string {
	if s.images != nil {
		a := models.Attachment{
			IssueID:     id,
			Name:        up.Name,
			ContentType: up.ContentType,
			UploadedAt:  s.now(),
			By:          models.Reporter{ID: actor.Email, Name: actor.Name},
		}
		url, err := s.images.UploadImage(ctx, a, bytes.NewReader(up.Data))
		if err == nil {
			return url
		}
		s.log.Warn("image upload failed, keeping data URL", "issue", id, "error", err)
	}
	return DataURL(up.ContentType, up.Data)
}

func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// authorize lets admins act on any issue and everyone else only on issues
// assigned to them.
func (s *SupervisorService) authorize(actor models.Session, id string) error {
	issue, err := s.issues.Get(id)
	if err != nil {
		return err
	}
	if actor.HasRole(models.RoleAdmin) || issue.AssignedTo(actor.Name) {
		return nil
	}
	return ErrForbidden
}

func (s *SupervisorService) publish(ctx context.Context, id string, state models.SupervisorState) {
	if s.bus == nil {
		return
	}
	e := events.Event{Kind: events.SupervisorUpdated, IssueID: id, Data: state, At: s.now()}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed", "kind", e.Kind, "error", err)
	}
}
