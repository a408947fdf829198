package seating

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
)

// RosterOrderings lists the fields a roster may be ordered by.
var RosterOrderings = []string{"name", "created_at", "id"}

type (
	// Repository is the store boundary. Implementations parse raw rows into typed records,
	// report unique violations as ErrSeatConflict and any other I/O failure as a *PersistenceError.
	Repository interface {
		ListClassrooms(ctx context.Context) ([]Classroom, error)
		// GetClassroom returns ErrClassroomNotFound, or the classroom along with a *ConfigError
		// when its persisted cells could not be parsed. The layout cells are then nil.
		GetClassroom(ctx context.Context, id string) (Classroom, error)
		CreateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		SaveLayout(ctx context.Context, layout Layout) error
		// LoadRoster returns the active students of the classroom, by name and id unless ordered otherwise.
		LoadRoster(ctx context.Context, classID string, ordering ...core.DBOrdering) ([]Student, error)
		AddStudents(ctx context.Context, students ...Student) error
		LoadAssignments(ctx context.Context, classID string) ([]Assignment, error)
		// WriteAssignment upserts the seat row. An empty studentID vacates the seat.
		WriteAssignment(ctx context.Context, classID string, row, col int, studentID string) error
		DeleteAssignments(ctx context.Context, classID string, seats ...Seat) error
		// WithTx runs fn in a transaction: it is committed if fn returns nil, rolled back otherwise.
		WithTx(ctx context.Context, fn func(repo Repository) error) error
	}

	// Defaults are used for whatever a new classroom does not specify.
	Defaults struct {
		Rows               int
		Columns            int
		NumberingMode      NumberingMode
		NumberingDirection NumberingDirection
	}

	Service struct {
		repo       Repository
		logger     core.Logger
		locker     Locker
		engine     *Engine
		defaults   Defaults
		validate   *validator.Validate
		translator ut.Translator
		now        func() time.Time
	}

	Option func(*Service)
)

var defaultDefaults = Defaults{
	Rows:               6,
	Columns:            8,
	NumberingMode:      ModeRowColumn,
	NumberingDirection: DirectionTop,
}

// DefaultsFromConfig reads the defaults from the app config, ignoring invalid values.
func DefaultsFromConfig(conf core.SeatingConfig) Defaults {
	d := defaultDefaults
	if conf.DefaultRows > 0 {
		d.Rows = conf.DefaultRows
	}
	if conf.DefaultColumns > 0 {
		d.Columns = conf.DefaultColumns
	}
	if m := NumberingMode(conf.DefaultNumberingMode); m.Valid() {
		d.NumberingMode = m
	}
	if dir := NumberingDirection(conf.DefaultNumberingDirection); dir.Valid() {
		d.NumberingDirection = dir
	}
	return d
}

func WithLocker(locker Locker) Option {
	return func(svc *Service) { svc.locker = locker }
}

func WithEngine(engine *Engine) Option {
	return func(svc *Service) { svc.engine = engine }
}

func WithDefaults(defaults Defaults) Option {
	return func(svc *Service) { svc.defaults = defaults }
}

// WithValidator sets the validator used on inputs. It must have the seating validators registered.
func WithValidator(validate *validator.Validate, translator ut.Translator) Option {
	return func(svc *Service) {
		svc.validate = validate
		svc.translator = translator
	}
}

func NewService(repo Repository, logger core.Logger, opts ...Option) *Service {
	svc := &Service{
		repo:     repo,
		logger:   logger,
		defaults: defaultDefaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.locker == nil {
		svc.locker = NewKeyedMutex()
	}
	if svc.engine == nil {
		svc.engine = NewEngine()
	}
	if svc.validate == nil {
		svc.validate, svc.translator = NewValidator()
	}
	return svc
}

func (svc *Service) Defaults() Defaults { return svc.defaults }

func (svc *Service) validateStruct(s interface{}) error {
	if err := svc.validate.Struct(s); err != nil {
		return core.TranslateValidationErrors(err, svc.translator)
	}
	return nil
}

func checkClassID(classID string) error {
	if core.CleanString(classID) == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
	}
	return nil
}

// mutate runs fn in a transaction, holding the classroom lock.
func (svc *Service) mutate(ctx context.Context, classID string, fn func(repo Repository) error) error {
	if err := checkClassID(classID); err != nil {
		return err
	}
	unlock, err := svc.locker.Lock(ctx, classID)
	if err != nil {
		return errors.Wrapf(err, "locking classroom %q", classID)
	}
	defer unlock()
	return svc.repo.WithTx(ctx, fn)
}

// loadClassroom returns the classroom and its grid, substituting the default grid for a malformed layout.
func (svc *Service) loadClassroom(ctx context.Context, repo Repository, classID string) (Classroom, Grid, error) {
	if err := checkClassID(classID); err != nil {
		return Classroom{}, Grid{}, err
	}
	cls, err := repo.GetClassroom(ctx, classID)
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		svc.logger.Warn("falling back to the default grid", cfgErr, map[string]interface{}{"class_id": classID})
		err = nil
	}
	if err != nil {
		return Classroom{}, Grid{}, err
	}

	grid, err := GridFromLayout(cls.Layout)
	if errors.As(err, &cfgErr) {
		svc.logger.Warn("falling back to the default grid", cfgErr, map[string]interface{}{"class_id": classID})
		err = nil
	}
	if err != nil {
		return Classroom{}, Grid{}, err
	}
	cls.Layout.Cells = grid.Cells()
	if !cls.Layout.NumberingMode.Valid() {
		cls.Layout.NumberingMode = svc.defaults.NumberingMode
	}
	if !cls.Layout.NumberingDirection.Valid() {
		cls.Layout.NumberingDirection = svc.defaults.NumberingDirection
	}
	return cls, grid, nil
}

func (svc *Service) ListClassrooms(ctx context.Context) ([]Classroom, error) {
	return svc.repo.ListClassrooms(ctx)
}

func (svc *Service) GetClassroom(ctx context.Context, classID string) (Classroom, error) {
	cls, _, err := svc.loadClassroom(ctx, svc.repo, classID)
	return cls, err
}

func (svc *Service) CreateClassroom(ctx context.Context, nc NewClassroom) (Classroom, error) {
	nc.ID = core.CleanString(nc.ID)
	nc.Name = core.CleanString(nc.Name)
	if err := svc.validateStruct(nc); err != nil {
		return Classroom{}, err
	}

	if nc.ID == "" {
		nc.ID = uuid.NewString()
	}
	if nc.Cells != nil && nc.Rows == 0 && nc.Columns == 0 && len(nc.Cells) > 0 {
		nc.Rows, nc.Columns = len(nc.Cells), len(nc.Cells[0])
	}
	if nc.Rows == 0 {
		nc.Rows = svc.defaults.Rows
	}
	if nc.Columns == 0 {
		nc.Columns = svc.defaults.Columns
	}
	if nc.NumberingMode == "" {
		nc.NumberingMode = svc.defaults.NumberingMode
	}
	if nc.NumberingDirection == "" {
		nc.NumberingDirection = svc.defaults.NumberingDirection
	}
	grid, err := NewGrid(nc.Rows, nc.Columns, nc.Cells)
	if err != nil {
		return Classroom{}, err
	}

	now := svc.now()
	cls := Classroom{
		ID:   nc.ID,
		Name: nc.Name,
		Layout: Layout{
			ClassID:            nc.ID,
			Rows:               grid.Rows(),
			Columns:            grid.Columns(),
			Cells:              grid.Cells(),
			NumberingMode:      nc.NumberingMode,
			NumberingDirection: nc.NumberingDirection,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	cls, err = svc.repo.CreateClassroom(ctx, cls)
	if errors.Is(err, ErrClassroomExists) {
		return Classroom{}, core.NewValidationError(err, core.FieldError{Field: "id", Error: err.Error()})
	}
	return cls, err
}

// GetArrangement returns the layout, its numbered seats with their occupants and the unassigned roster.
func (svc *Service) GetArrangement(ctx context.Context, classID string) (Arrangement, error) {
	cls, grid, err := svc.loadClassroom(ctx, svc.repo, classID)
	if err != nil {
		return Arrangement{}, err
	}
	roster, err := svc.repo.LoadRoster(ctx, classID)
	if err != nil {
		return Arrangement{}, err
	}
	assignments, err := svc.repo.LoadAssignments(ctx, classID)
	if err != nil {
		return Arrangement{}, err
	}
	return buildArrangement(cls.Layout, grid, roster, assignments), nil
}

func buildArrangement(layout Layout, grid Grid, roster []Student, assignments []Assignment) Arrangement {
	names := make(map[string]string, len(roster))
	for _, st := range roster {
		names[st.ID] = st.Name
	}

	occupants := make(map[Seat]string, len(assignments))
	seated := make(map[string]bool, len(assignments))
	arr := Arrangement{
		Layout:      layout,
		Assignments: make([]Assignment, 0, len(assignments)),
		Unassigned:  make([]Student, 0),
	}
	for _, a := range assignments {
		if !a.Occupied() || !grid.IsSeat(a.Row, a.Column) {
			continue
		}
		occupants[a.Seat()] = a.StudentID
		seated[a.StudentID] = true
		arr.Assignments = append(arr.Assignments, a)
	}

	numbers := Numbering(grid, layout.NumberingMode, layout.NumberingDirection)
	arr.Seats = make([]NumberedSeat, 0, len(numbers))
	for cell := range grid.SeatCells() {
		ns := NumberedSeat{Row: cell.Row, Column: cell.Column, Number: numbers[cell.Seat()]}
		if sid, ok := occupants[cell.Seat()]; ok {
			ns.StudentID = sid
			ns.StudentName = names[sid]
		}
		arr.Seats = append(arr.Seats, ns)
	}

	for _, st := range roster {
		if !seated[st.ID] {
			arr.Unassigned = append(arr.Unassigned, st)
		}
	}
	return arr
}

// SaveLayoutConfig replaces the layout of a classroom.
// Assignments left outside the new bounds or on a cell that is no longer a seat are deleted.
func (svc *Service) SaveLayoutConfig(ctx context.Context, sl SaveLayout) (Layout, error) {
	sl.ClassID = core.CleanString(sl.ClassID)
	if err := svc.validateStruct(sl); err != nil {
		return Layout{}, err
	}
	grid, err := NewGrid(sl.Rows, sl.Columns, sl.Cells)
	if err != nil {
		return Layout{}, err
	}

	var layout Layout
	err = svc.mutate(ctx, sl.ClassID, func(repo Repository) error {
		cls, _, err := svc.loadClassroom(ctx, repo, sl.ClassID)
		if err != nil {
			return err
		}
		layout = Layout{
			ClassID:            sl.ClassID,
			Rows:               grid.Rows(),
			Columns:            grid.Columns(),
			Cells:              grid.Cells(),
			NumberingMode:      sl.NumberingMode,
			NumberingDirection: sl.NumberingDirection,
		}
		if layout.NumberingMode == "" {
			layout.NumberingMode = cls.Layout.NumberingMode
		}
		if layout.NumberingDirection == "" {
			layout.NumberingDirection = cls.Layout.NumberingDirection
		}
		if err := repo.SaveLayout(ctx, layout); err != nil {
			return err
		}

		assignments, err := repo.LoadAssignments(ctx, sl.ClassID)
		if err != nil {
			return err
		}
		var stale []Seat
		for _, a := range assignments {
			if !grid.IsSeat(a.Row, a.Column) {
				stale = append(stale, a.Seat())
			}
		}
		if len(stale) > 0 {
			svc.logger.Info("dropping assignments outside the new layout", map[string]interface{}{
				"class_id": sl.ClassID,
				"count":    len(stale),
			})
			return repo.DeleteAssignments(ctx, sl.ClassID, stale...)
		}
		return nil
	})
	if err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// AutoAssign re-seats the classroom following opts.Strategy.
// Fixed students holding a valid seat keep it; every other seat is vacated before the new mapping is written.
func (svc *Service) AutoAssign(ctx context.Context, classID string, opts AutoAssignOptions) (AssignResult, error) {
	if err := svc.validateStruct(opts); err != nil {
		return AssignResult{}, err
	}

	var result AssignResult
	err := svc.mutate(ctx, classID, func(repo Repository) error {
		cls, grid, err := svc.loadClassroom(ctx, repo, classID)
		if err != nil {
			return err
		}
		roster, err := repo.LoadRoster(ctx, classID)
		if err != nil {
			return err
		}
		assignments, err := repo.LoadAssignments(ctx, classID)
		if err != nil {
			return err
		}

		fixed := make(map[string]bool, len(opts.FixedStudentIDs))
		for _, id := range opts.FixedStudentIDs {
			fixed[id] = true
		}
		kept := make(map[string]bool)
		keptSeats := make(map[Seat]bool)
		var vacate []Assignment
		for _, a := range assignments {
			if !a.Occupied() {
				continue
			}
			if fixed[a.StudentID] && grid.IsSeat(a.Row, a.Column) {
				kept[a.StudentID] = true
				keptSeats[a.Seat()] = true
				continue
			}
			vacate = append(vacate, a)
		}

		students := make([]Student, 0, len(roster))
		for _, st := range roster {
			if !kept[st.ID] {
				students = append(students, st)
			}
		}
		seats := make([]SeatCell, 0, grid.SeatCount())
		for cell := range grid.SeatCells() {
			if !keptSeats[cell.Seat()] {
				seats = append(seats, cell)
			}
		}

		result, err = svc.engine.Assign(opts.Strategy, grid, students, seats)
		if err != nil {
			return err
		}

		// null first: the new mapping may reuse the seats & students being vacated
		for _, a := range vacate {
			if err := repo.WriteAssignment(ctx, classID, a.Row, a.Column, ""); err != nil {
				return err
			}
		}
		for _, p := range result.Mapping {
			if err := repo.WriteAssignment(ctx, classID, p.Row, p.Column, p.StudentID); err != nil {
				return err
			}
		}

		if opts.NumberingMode != "" || opts.NumberingDirection != "" {
			layout := cls.Layout
			if opts.NumberingMode != "" {
				layout.NumberingMode = opts.NumberingMode
			}
			if opts.NumberingDirection != "" {
				layout.NumberingDirection = opts.NumberingDirection
			}
			if err := repo.SaveLayout(ctx, layout); err != nil {
				return err
			}
		}

		svc.logger.Debug("auto-assigned classroom", map[string]interface{}{
			"class_id": classID,
			"strategy": string(opts.Strategy),
			"assigned": result.AssignedCount,
			"fixed":    len(kept),
		})
		return nil
	})
	if err != nil {
		return AssignResult{}, err
	}
	return result, nil
}

// ClearArrangement vacates every seat of the classroom.
func (svc *Service) ClearArrangement(ctx context.Context, classID string) error {
	return svc.mutate(ctx, classID, func(repo Repository) error {
		if _, _, err := svc.loadClassroom(ctx, repo, classID); err != nil {
			return err
		}
		assignments, err := repo.LoadAssignments(ctx, classID)
		if err != nil {
			return err
		}
		for _, a := range assignments {
			if !a.Occupied() {
				continue
			}
			if err := repo.WriteAssignment(ctx, classID, a.Row, a.Column, ""); err != nil {
				return err
			}
		}
		return nil
	})
}
