package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"gorm.io/gorm"
)

// Form groups, used as the first URL segment of record routes.
const (
	GroupKDSP      = "kdsp"
	GroupStrategic = "strategic"
	GroupLookups   = "records"
)

// FormKind describes one form-backed record type.
type FormKind struct {
	Group        string             `json:"group"`
	Name         string             `json:"name"`
	Label        string             `json:"label"`
	ParentField  string             `json:"-"` // Go field name of the owner key
	ParentColumn string             `json:"parentKey,omitempty"`
	Read         workflow.Privilege `json:"readPrivilege"`
	Write        workflow.Privilege `json:"writePrivilege"`
}

func (k FormKind) key() string { return k.Group + "/" + k.Name }

// Binder decodes a request body into dst.
type Binder func(dst interface{}) error

// RecordService is the kind-agnostic face of CrudService used by the HTTP layer.
type RecordService interface {
	Kind() FormKind
	List(ctx context.Context, parentID *uint, viewer workflow.Viewer) (interface{}, error)
	Get(ctx context.Context, id uint, viewer workflow.Viewer) (interface{}, error)
	Create(ctx context.Context, bind Binder, viewer workflow.Viewer) (interface{}, error)
	Update(ctx context.Context, id uint, bind Binder, viewer workflow.Viewer) (interface{}, error)
	Delete(ctx context.Context, id uint, viewer workflow.Viewer) error
}

// CrudService implements list/get/create/update/delete for one record type.
type CrudService[T any] struct {
	kind   FormKind
	repo   repository.CrudRepository[T]
	tm     repository.TransactionManager
	audit  repository.AuditRepository
	events EventPublisher
}

func NewCrudService[T any](kind FormKind, repo repository.CrudRepository[T], tm repository.TransactionManager,
	audit repository.AuditRepository, events EventPublisher) *CrudService[T] {
	return &CrudService[T]{kind: kind, repo: repo, tm: tm, audit: audit, events: publisherOrNoop(events)}
}

func (s *CrudService[T]) Kind() FormKind { return s.kind }

func (s *CrudService[T]) List(ctx context.Context, parentID *uint, viewer workflow.Viewer) (interface{}, error) {
	if err := requirePrivilege(viewer, s.kind.Read); err != nil {
		return nil, err
	}
	where := map[string]interface{}{}
	if parentID != nil {
		if s.kind.ParentColumn == "" {
			return nil, invalidf("%s records have no parent", s.kind.Name)
		}
		where[s.kind.ParentColumn] = *parentID
	}
	records, err := s.repo.List(ctx, where)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.kind.Name, err)
	}
	return records, nil
}

func (s *CrudService[T]) Get(ctx context.Context, id uint, viewer workflow.Viewer) (interface{}, error) {
	if err := requirePrivilege(viewer, s.kind.Read); err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(s.kind.Label, err)
	}
	return record, nil
}

func (s *CrudService[T]) Create(ctx context.Context, bind Binder, viewer workflow.Viewer) (interface{}, error) {
	if err := requirePrivilege(viewer, s.kind.Write); err != nil {
		return nil, err
	}
	record := new(T)
	if err := bind(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	setRecordID(record, 0)
	if s.kind.ParentField != "" && recordUint(record, s.kind.ParentField) == 0 {
		return nil, invalidf("%s is required", s.kind.ParentColumn)
	}
	normalize(record)

	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.kind.Label, err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionCreateRecord, s.kind.Name, recordUint(record, "ID"), nil))
	})
	if err != nil {
		return nil, err
	}
	s.publish(record, "created")
	return record, nil
}

func (s *CrudService[T]) Update(ctx context.Context, id uint, bind Binder, viewer workflow.Viewer) (interface{}, error) {
	if err := requirePrivilege(viewer, s.kind.Write); err != nil {
		return nil, err
	}

	var record *T
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		record, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return lookupErr(s.kind.Label, err)
		}
		parent := uint(0)
		if s.kind.ParentField != "" {
			parent = recordUint(record, s.kind.ParentField)
		}
		if err := bind(record); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		setRecordID(record, id)
		if s.kind.ParentField != "" && recordUint(record, s.kind.ParentField) == 0 {
			setRecordUint(record, s.kind.ParentField, parent)
		}
		normalize(record)

		if err := s.repo.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update %s: %w", s.kind.Label, err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionUpdateRecord, s.kind.Name, id, nil))
	})
	if err != nil {
		return nil, err
	}
	s.publish(record, "updated")
	return record, nil
}

func (s *CrudService[T]) Delete(ctx context.Context, id uint, viewer workflow.Viewer) error {
	if err := requirePrivilege(viewer, s.kind.Write); err != nil {
		return err
	}
	err := s.tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return lookupErr(s.kind.Label, err)
		}
		return s.audit.Log(txCtx, newAuditLog(viewer.UserID, model.ActionDeleteRecord, s.kind.Name, id, nil))
	})
	if err != nil {
		return err
	}
	s.events.Publish(EventRecordChanged, payload{"kind": s.kind.key(), "id": id, "change": "deleted"})
	return nil
}

func (s *CrudService[T]) publish(record *T, change string) {
	data := payload{"kind": s.kind.key(), "id": recordUint(record, "ID"), "change": change}
	if s.kind.ParentField != "" {
		data["parentId"] = recordUint(record, s.kind.ParentField)
	}
	s.events.Publish(EventRecordChanged, data)
}

func normalize(record interface{}) {
	if n, ok := record.(model.Normalizer); ok {
		n.Normalize()
	}
}

func recordUint(record interface{}, field string) uint {
	v := reflect.ValueOf(record).Elem().FieldByName(field)
	if !v.IsValid() || v.Kind() != reflect.Uint {
		return 0
	}
	return uint(v.Uint())
}

func setRecordUint(record interface{}, field string, value uint) {
	v := reflect.ValueOf(record).Elem().FieldByName(field)
	if v.IsValid() && v.Kind() == reflect.Uint && v.CanSet() {
		v.SetUint(uint64(value))
	}
}

func setRecordID(record interface{}, id uint) { setRecordUint(record, "ID", id) }

// --- Registry ---

// Registry is the closed set of form kinds served by the record endpoints.
type Registry struct {
	services map[string]RecordService
}

func (r *Registry) Register(svc RecordService) {
	if r.services == nil {
		r.services = make(map[string]RecordService)
	}
	r.services[svc.Kind().key()] = svc
}

func (r *Registry) Lookup(group, name string) (RecordService, bool) {
	svc, ok := r.services[group+"/"+name]
	return svc, ok
}

// Kinds lists the registered kinds ordered by group then name.
func (r *Registry) Kinds() []FormKind {
	kinds := make([]FormKind, 0, len(r.services))
	for _, svc := range r.services {
		kinds = append(kinds, svc.Kind())
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].key() < kinds[j].key() })
	return kinds
}

func register[T any](r *Registry, db *gorm.DB, tm repository.TransactionManager, audit repository.AuditRepository,
	events EventPublisher, kind FormKind) {
	r.Register(NewCrudService[T](kind, repository.NewCrudRepository[T](db), tm, audit, events))
}

func kdspKind(name, label string) FormKind {
	return FormKind{Group: GroupKDSP, Name: name, Label: label, ParentField: "ProjectID", ParentColumn: "project_id",
		Read: workflow.PrivKdspRead, Write: workflow.PrivKdspUpdate}
}

func strategicKind(name, label, parentField, parentColumn string) FormKind {
	return FormKind{Group: GroupStrategic, Name: name, Label: label, ParentField: parentField, ParentColumn: parentColumn,
		Read: workflow.PrivStrategicPlanRead, Write: workflow.PrivStrategicPlanUpdate}
}

// NewRegistry wires every record kind to a gorm-backed CrudService.
func NewRegistry(db *gorm.DB, tm repository.TransactionManager, audit repository.AuditRepository, events EventPublisher) *Registry {
	r := &Registry{}

	register[model.ConceptNote](r, db, tm, audit, events, kdspKind("concept-notes", "concept note"))
	register[model.NeedsAssessment](r, db, tm, audit, events, kdspKind("needs-assessments", "needs assessment"))
	register[model.Financials](r, db, tm, audit, events, kdspKind("financials", "financials"))
	register[model.FyBreakdown](r, db, tm, audit, events, kdspKind("fy-breakdowns", "financial year breakdown"))
	register[model.Sustainability](r, db, tm, audit, events, kdspKind("sustainability", "sustainability"))
	register[model.ImplementationPlan](r, db, tm, audit, events, kdspKind("implementation-plans", "implementation plan"))
	register[model.MonitoringEvaluation](r, db, tm, audit, events, kdspKind("monitoring-evaluation", "M&E record"))
	register[model.Risk](r, db, tm, audit, events, kdspKind("risks", "risk"))
	register[model.Readiness](r, db, tm, audit, events, kdspKind("readiness", "readiness"))
	register[model.Hazard](r, db, tm, audit, events, kdspKind("hazards", "hazard"))

	register[model.StrategicPlan](r, db, tm, audit, events, strategicKind("plans", "strategic plan", "", ""))
	register[model.Program](r, db, tm, audit, events, strategicKind("programs", "program", "StrategicPlanID", "strategic_plan_id"))
	register[model.Subprogram](r, db, tm, audit, events, strategicKind("subprograms", "subprogram", "ProgramID", "program_id"))
	register[model.AnnualWorkPlan](r, db, tm, audit, events, strategicKind("work-plans", "annual work plan", "SubprogramID", "subprogram_id"))
	register[model.WorkPlanActivity](r, db, tm, audit, events, strategicKind("activities", "work plan activity", "WorkPlanID", "work_plan_id"))

	register[model.Project](r, db, tm, audit, events, FormKind{Group: GroupLookups, Name: "projects", Label: "project",
		Read: workflow.PrivProjectRead, Write: workflow.PrivProjectUpdate})
	register[model.Contractor](r, db, tm, audit, events, FormKind{Group: GroupLookups, Name: "contractors", Label: "contractor",
		Read: workflow.PrivProjectRead, Write: workflow.PrivProjectUpdate})
	register[model.Milestone](r, db, tm, audit, events, FormKind{Group: GroupLookups, Name: "milestones", Label: "milestone",
		ParentField: "ProjectID", ParentColumn: "project_id", Read: workflow.PrivProjectRead, Write: workflow.PrivProjectUpdate})
	register[model.ApprovalLevel](r, db, tm, audit, events, FormKind{Group: GroupLookups, Name: "approval-levels", Label: "approval level",
		Read: workflow.PrivPaymentRequestRead, Write: workflow.PrivApprovalLevelManage})

	return r
}
