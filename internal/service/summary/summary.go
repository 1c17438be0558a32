// Package summary computes the dashboard counters.
package summary

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/internal/service/appointment"
	"github.com/clinicheck/clinicheck_backend/internal/service/clinician"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/patient"
	"github.com/clinicheck/clinicheck_backend/internal/service/response"
	"github.com/clinicheck/clinicheck_backend/internal/service/survey"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
)

// RecentResponses is how many responses a summary carries.
const RecentResponses = 4

type Summary struct {
	Pacientes         int                  `json:"pacientes"`
	Medicos           int                  `json:"medicos"`
	Encuestas         int                  `json:"encuestas"`
	CitasPendientes   int                  `json:"citasPendientes"`
	UltimasRespuestas []*docstore.Document `json:"ultimasRespuestas"`
	// EsMedico is set when the counters are scoped to the caller's patients.
	EsMedico bool `json:"esMedico"`
}

type Service interface {
	Get(ctx context.Context, callerID string) (*Summary, error)
}

type summaryService struct {
	resolver     identity.Resolver
	patients     patient.Service
	clinicians   clinician.Service
	surveys      survey.Service
	appointments appointment.Service
	responses    response.Service
}

func New(
	resolver identity.Resolver,
	patients patient.Service,
	clinicians clinician.Service,
	surveys survey.Service,
	appointments appointment.Service,
	responses response.Service,
) Service {
	return &summaryService{
		resolver:     resolver,
		patients:     patients,
		clinicians:   clinicians,
		surveys:      surveys,
		appointments: appointments,
		responses:    responses,
	}
}

func (s *summaryService) Get(ctx context.Context, callerID string) (*Summary, error) {
	callerID = strings.TrimSpace(callerID)

	var esMedico bool
	if callerID != "" {
		id, err := s.resolver.Resolve(ctx, callerID)
		if err != nil {
			return nil, err
		}
		esMedico = id.Known && id.Role == authorize.RoleMedico
	}

	var pacientes, medicos, encuestas, citas, respuestas []*docstore.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pacientes, err = s.patients.List(gctx, callerID)
		return err
	})
	g.Go(func() (err error) {
		medicos, err = s.clinicians.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		encuestas, err = s.surveys.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		citas, err = s.appointments.List(gctx, callerID)
		return err
	})
	g.Go(func() (err error) {
		respuestas, err = s.responses.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}

	out := &Summary{
		Pacientes:         len(pacientes),
		Medicos:           len(medicos),
		Encuestas:         len(encuestas),
		UltimasRespuestas: []*docstore.Document{},
		EsMedico:          esMedico,
	}

	uids := make(map[string]struct{}, len(pacientes))
	surveyIDs := make(map[string]struct{})
	for _, p := range pacientes {
		uids[p.String(schema.FieldUID)] = struct{}{}
		if e := p.String(schema.FieldEncuestaID); e != "" {
			surveyIDs[e] = struct{}{}
		}
	}
	if esMedico {
		out.Encuestas = len(surveyIDs)
	}

	for _, c := range citas {
		if strings.EqualFold(c.String(schema.FieldEstado), schema.EstadoPendiente) {
			out.CitasPendientes++
		}
	}

	for _, r := range respuestas {
		if len(out.UltimasRespuestas) == RecentResponses {
			break
		}
		if _, ok := uids[r.String(schema.FieldPacienteID)]; ok {
			out.UltimasRespuestas = append(out.UltimasRespuestas, r)
		}
	}
	return out, nil
}
