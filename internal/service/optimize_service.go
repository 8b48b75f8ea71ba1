package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/azsu-rae/asura-edt/internal/models"
	"github.com/azsu-rae/asura-edt/pkg/config"
	appErrors "github.com/azsu-rae/asura-edt/pkg/errors"
	"github.com/azsu-rae/asura-edt/pkg/metrics"
)

type referenceStore interface {
	ListFormations(ctx context.Context) ([]models.Formation, error)
	ListModules(ctx context.Context) ([]models.Module, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	ListProfessors(ctx context.Context) ([]models.Professor, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
}

type scheduleStore interface {
	Replace(ctx context.Context, plans []models.ModulePlan) (int, int, error)
	StudentDayViolations(ctx context.Context, limit int) ([]models.StudentDayViolation, error)
	ProfessorDayViolations(ctx context.Context, maxPerDay, limit int) ([]models.ProfessorDayViolation, error)
	SessionSpread(ctx context.Context) (*models.SessionDistribution, error)
}

// OptimizeService runs the batch pipeline: load, conflict graph, day/slot
// assignment, room packing, proctor assignment, write.
type OptimizeService struct {
	refs     referenceStore
	schedule scheduleStore
	cfg      config.ExamConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Summary is the user-visible result of a run.
type Summary struct {
	RunID                 string        `json:"run_id"`
	Elapsed               time.Duration `json:"elapsed"`
	NumExams              int           `json:"num_exams"`
	NumDays               int           `json:"num_days"`
	NumSlots              int           `json:"num_slots"`
	NumSurveillances      int           `json:"num_surveillances"`
	StudentViolations     int           `json:"student_violations"`
	ChromaticEstimate     int           `json:"chromatic_estimate"`
	UnderProctoredModules int           `json:"under_proctored_modules"`
	UnplacedGroups        int           `json:"unplaced_groups"`
}

// NewOptimizeService wires the pipeline dependencies.
func NewOptimizeService(refs referenceStore, schedule scheduleStore, cfg config.ExamConfig, logger *zap.Logger, m *metrics.Metrics) *OptimizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &OptimizeService{refs: refs, schedule: schedule, cfg: cfg, logger: logger, metrics: m}
}

// Run executes one complete optimization. It is total over soft constraint
// misses: an infeasible calendar or a proctor shortage degrades the result
// and the summary, never the exit path. Only an invalid calendar
// configuration, unavailable data, integrity violations and write failures
// are fatal.
func (s *OptimizeService) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))

	cal, err := BuildCalendar(s.cfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.ExitCode, "invalid exam calendar configuration")
	}

	w, err := s.load(ctx, log)
	if err != nil {
		return nil, err
	}

	phaseStart := time.Now()
	graph := BuildConflictGraph(w.modules, w.students)
	s.metrics.ObservePhase("conflict_graph", time.Since(phaseStart))
	log.Info("conflict graph built",
		zap.Int("modules", len(graph.Modules())),
		zap.Int("conflicts", graph.NumEdges()),
	)

	phaseStart = time.Now()
	assigner := newSlotAssigner(graph, cal.NumDays(), cal.SlotsPerDay())
	slots := assigner.assign(w.studentModules)
	s.metrics.ObservePhase("slot_assignment", time.Since(phaseStart))
	s.metrics.SetChromaticEstimate(slots.Chromatic)
	log.Info("day/slot assignment done",
		zap.Int("chromatic_estimate", slots.Chromatic),
		zap.Int("days_available", cal.NumDays()),
		zap.Int("student_violations", slots.StudentViolations),
	)
	if slots.StudentViolations > 0 {
		log.Warn("calendar infeasible for conflict-free schedule, violations accepted",
			zap.Int("days_needed", slots.Chromatic),
			zap.Int("days_available", cal.NumDays()),
			zap.Int("student_violations", slots.StudentViolations),
		)
	}

	phaseStart = time.Now()
	packer := newRoomPacker(s.cfg, w.rooms)
	moduleRooms, unplaced := s.packAll(cal, packer, w, slots)
	s.metrics.ObservePhase("room_packing", time.Since(phaseStart))
	if unplaced > 0 {
		log.Warn("room pools exhausted, groups left unplaced", zap.Int("unplaced_groups", unplaced))
	}

	phaseStart = time.Now()
	totalSessions := 0
	for _, rooms := range moduleRooms {
		for _, room := range rooms {
			if room.RoomType == models.RoomAmphi {
				totalSessions += s.cfg.ProctorsPerAmphi
			} else {
				totalSessions += s.cfg.ProctorsPerSmallRoom
			}
		}
	}
	proctors := newProctorAssigner(s.cfg, w.professors, totalSessions)
	moduleProctors := make(map[int64][]int64, len(w.moduleIDs))
	underProctored := 0
	for _, moduleID := range w.moduleIDs {
		assigned, short := proctors.assignModule(moduleID, w.moduleDept[moduleID], slots.Day[moduleID], moduleRooms[moduleID])
		moduleProctors[moduleID] = assigned
		if short != nil {
			underProctored++
			log.Warn("module under-proctored",
				zap.Int64("module_id", short.ModuleID),
				zap.Int("short_by", short.ShortBy),
			)
		}
	}
	s.metrics.ObservePhase("proctor_assignment", time.Since(phaseStart))
	minSessions, maxSessions, assignedSessions := proctors.sessionStats()
	avgSessions := 0.0
	if len(w.professors) > 0 {
		avgSessions = float64(assignedSessions) / float64(len(w.professors))
	}
	log.Info("proctor assignment done",
		zap.Int("total_sessions", totalSessions),
		zap.Int("min_sessions", minSessions),
		zap.Int("max_sessions", maxSessions),
		zap.Float64("avg_sessions", avgSessions),
	)

	plans := make([]models.ModulePlan, 0, len(w.moduleIDs))
	for _, moduleID := range w.moduleIDs {
		plans = append(plans, models.ModulePlan{
			ModuleID:   moduleID,
			DateTime:   cal.At(slots.Day[moduleID], slots.Slot[moduleID]),
			Rooms:      moduleRooms[moduleID],
			ProctorIDs: moduleProctors[moduleID],
		})
	}

	phaseStart = time.Now()
	examCount, proctoringCount, err := s.schedule.Replace(ctx, plans)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.ExitCode, "failed to persist schedule")
	}
	s.metrics.ObservePhase("write", time.Since(phaseStart))

	s.verify(ctx, log)

	elapsed := time.Since(start)
	if s.cfg.WallClockBudget > 0 && elapsed > s.cfg.WallClockBudget {
		log.Warn("run exceeded wall clock budget",
			zap.Duration("elapsed", elapsed),
			zap.Duration("budget", s.cfg.WallClockBudget),
		)
	}

	s.metrics.SetCounts(examCount, proctoringCount, slots.StudentViolations, underProctored, unplaced)
	s.metrics.ObserveRun(elapsed)

	summary := &Summary{
		RunID:                 runID,
		Elapsed:               elapsed,
		NumExams:              examCount,
		NumDays:               cal.NumDays(),
		NumSlots:              cal.TotalSlots(),
		NumSurveillances:      proctoringCount,
		StudentViolations:     slots.StudentViolations,
		ChromaticEstimate:     slots.Chromatic,
		UnderProctoredModules: underProctored,
		UnplacedGroups:        unplaced,
	}
	log.Info("optimization completed",
		zap.Duration("elapsed", summary.Elapsed),
		zap.Int("num_exams", summary.NumExams),
		zap.Int("num_days", summary.NumDays),
		zap.Int("num_slots", summary.NumSlots),
		zap.Int("num_surveillances", summary.NumSurveillances),
		zap.Int("student_violations", summary.StudentViolations),
	)
	return summary, nil
}

// world holds the loaded reference data and the derived indexes every
// later phase reads.
type world struct {
	modules    []models.Module
	students   []models.Student
	professors []models.Professor
	rooms      []models.Room

	moduleIDs      []int64
	moduleDept     map[int64]int64
	studentModules map[int64][]int64
	groupsOf       func(moduleID int64) []groupCount
}

func (s *OptimizeService) load(ctx context.Context, log *zap.Logger) (*world, error) {
	phaseStart := time.Now()

	formations, err := s.refs.ListFormations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.ExitCode, "failed to load formations")
	}
	modules, err := s.refs.ListModules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.ExitCode, "failed to load modules")
	}
	students, err := s.refs.ListStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.ExitCode, "failed to load students")
	}
	professors, err := s.refs.ListProfessors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.ExitCode, "failed to load professors")
	}
	rooms, err := s.refs.ListRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataUnavailable.Code, appErrors.ErrDataUnavailable.ExitCode, "failed to load rooms")
	}

	formationDept := make(map[int64]int64, len(formations))
	for _, f := range formations {
		formationDept[f.ID] = f.DepartmentID
	}

	w := &world{
		modules:        modules,
		students:       students,
		professors:     professors,
		rooms:          rooms,
		moduleDept:     make(map[int64]int64, len(modules)),
		studentModules: make(map[int64][]int64, len(students)),
	}

	modulesByFormation := make(map[int64][]int64)
	for _, m := range modules {
		dept, ok := formationDept[m.FormationID]
		if !ok {
			log.Error("module references unknown formation",
				zap.Int64("module_id", m.ID),
				zap.Int64("formation_id", m.FormationID),
			)
			return nil, appErrors.Clone(appErrors.ErrIntegrityViolation, "module references unknown formation")
		}
		w.moduleDept[m.ID] = dept
		w.moduleIDs = append(w.moduleIDs, m.ID)
		modulesByFormation[m.FormationID] = append(modulesByFormation[m.FormationID], m.ID)
	}
	sort.Slice(w.moduleIDs, func(i, j int) bool { return w.moduleIDs[i] < w.moduleIDs[j] })

	groupSizes := make(map[int64]map[int]int)
	for _, st := range students {
		if _, ok := formationDept[st.FormationID]; !ok {
			log.Error("student references unknown formation",
				zap.Int64("student_id", st.ID),
				zap.Int64("formation_id", st.FormationID),
			)
			return nil, appErrors.Clone(appErrors.ErrIntegrityViolation, "student references unknown formation")
		}
		w.studentModules[st.ID] = modulesByFormation[st.FormationID]
		if groupSizes[st.FormationID] == nil {
			groupSizes[st.FormationID] = make(map[int]int)
		}
		groupSizes[st.FormationID][st.Group]++
	}

	formationGroups := make(map[int64][]groupCount, len(groupSizes))
	for formationID, sizes := range groupSizes {
		groups := make([]groupCount, 0, len(sizes))
		for group, size := range sizes {
			groups = append(groups, groupCount{FormationID: formationID, Group: group, Size: size})
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i].Group < groups[j].Group })
		formationGroups[formationID] = groups
	}

	moduleFormation := make(map[int64]int64, len(modules))
	for _, m := range modules {
		moduleFormation[m.ID] = m.FormationID
	}
	w.groupsOf = func(moduleID int64) []groupCount {
		return formationGroups[moduleFormation[moduleID]]
	}

	s.metrics.ObservePhase("load", time.Since(phaseStart))
	log.Info("reference data loaded",
		zap.Int("modules", len(modules)),
		zap.Int("students", len(students)),
		zap.Int("professors", len(professors)),
		zap.Int("rooms", len(rooms)),
	)
	return w, nil
}

// packAll runs the packer over every non-empty (day, slot) cell in
// calendar order.
func (s *OptimizeService) packAll(cal *ExamCalendar, packer *roomPacker, w *world, slots *SlotAssignment) (map[int64][]models.RoomAssignment, int) {
	cells := make(map[int]map[int][]int64)
	for _, moduleID := range w.moduleIDs {
		day := slots.Day[moduleID]
		slot := slots.Slot[moduleID]
		if cells[day] == nil {
			cells[day] = make(map[int][]int64)
		}
		cells[day][slot] = append(cells[day][slot], moduleID)
	}

	moduleRooms := make(map[int64][]models.RoomAssignment, len(w.moduleIDs))
	unplaced := 0
	for day := 0; day < cal.NumDays(); day++ {
		for slot := 0; slot < cal.SlotsPerDay(); slot++ {
			mods := cells[day][slot]
			if len(mods) == 0 {
				continue
			}
			assignments, cellUnplaced := packer.packCell(mods, w.groupsOf)
			for moduleID, rooms := range assignments {
				moduleRooms[moduleID] = rooms
			}
			unplaced += cellUnplaced
		}
	}
	return moduleRooms, unplaced
}

// verify re-reads the persisted schedule and reports constraint breaches.
// Verification is best effort: a failed check query is a warning.
func (s *OptimizeService) verify(ctx context.Context, log *zap.Logger) {
	const sampleLimit = 5

	studentViolations, err := s.schedule.StudentDayViolations(ctx, sampleLimit)
	switch {
	case err != nil:
		log.Warn("student day verification failed", zap.Error(err))
	case len(studentViolations) > 0:
		log.Warn("students with more than one exam per day", zap.Int("sample_size", len(studentViolations)))
	default:
		log.Info("verified: no student has more than one exam per day")
	}

	professorViolations, err := s.schedule.ProfessorDayViolations(ctx, s.cfg.MaxProctoringsPerDay, sampleLimit)
	switch {
	case err != nil:
		log.Warn("professor day verification failed", zap.Error(err))
	case len(professorViolations) > 0:
		log.Warn("professors above the daily proctoring cap", zap.Int("sample_size", len(professorViolations)))
	default:
		log.Info("verified: no professor above the daily proctoring cap")
	}

	spread, err := s.schedule.SessionSpread(ctx)
	if err != nil {
		log.Warn("session spread verification failed", zap.Error(err))
		return
	}
	log.Info("proctoring session spread",
		zap.Int("min_sessions", spread.Min),
		zap.Int("max_sessions", spread.Max),
		zap.Int("range", spread.Max-spread.Min),
	)
}
