package vrp

import (
	"fmt"
	"sync"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/vrp/matrix"
)

// Instance accumulates jobs, shipments, and vehicles under append-only
// ingestion, enforcing the structural invariants that must hold before the
// compatibility engine and dispatcher can run: a fixed amount dimensionality,
// a single index regime, a single skill-or-no-skill regime, and three
// disjoint id namespaces.
type Instance struct {
	mu sync.Mutex

	amountSize int

	indexModeSet bool
	explicitMode bool

	skillModeSet bool
	skillMode    bool

	hasTW        bool
	hasJobs      bool
	hasShipments bool

	firstVehicleSeen     bool
	homogeneousLocations bool
	homogeneousProfiles  bool
	firstStart           *Location
	firstEnd             *Location
	firstProfile         string

	maxUsedIndexSet bool
	maxUsedIndex    int

	registry *Registry

	jobs     []Job
	vehicles []Vehicle

	singleIDs   map[string]struct{}
	pickupIDs   map[string]struct{}
	deliveryIDs map[string]struct{}

	userMatrices map[string]matrix.Matrix

	// homogeneousLocations/homogeneousProfiles start true and latch false;
	// they default true vacuously until a second vehicle disagrees.
}

// NewInstance creates an empty instance with the given amount-vector
// dimensionality, fixed for the instance's lifetime.
func NewInstance(amountSize int) *Instance {
	return &Instance{
		amountSize:           amountSize,
		homogeneousLocations: true,
		homogeneousProfiles:  true,
		singleIDs:            make(map[string]struct{}),
		pickupIDs:            make(map[string]struct{}),
		deliveryIDs:          make(map[string]struct{}),
		userMatrices:         make(map[string]matrix.Matrix),
	}
}

func lengthMismatch(field string, got, want int) error {
	return apperror.New(apperror.CodeLengthMismatch,
		fmt.Sprintf("%s has length %d, want %d", field, got, want)).
		WithField(field).WithDetails("got", got).WithDetails("want", want)
}

// checkIndexMode enforces the all-or-nothing explicit-index rule across
// every job location and vehicle endpoint seen so far.
func (inst *Instance) checkIndexMode(hasIndex bool) error {
	if !inst.indexModeSet {
		inst.indexModeSet = true
		inst.explicitMode = hasIndex
		inst.registry = NewRegistry(hasIndex)
		return nil
	}
	if inst.explicitMode != hasIndex {
		return apperror.ErrMissingLocationIndex
	}
	return nil
}

// checkSkillMode enforces the all-or-nothing skills rule across every job
// and vehicle seen so far.
func (inst *Instance) checkSkillMode(hasSkills bool) error {
	if !inst.skillModeSet {
		inst.skillModeSet = true
		inst.skillMode = hasSkills
		return nil
	}
	if inst.skillMode != hasSkills {
		return apperror.ErrMissingSkills
	}
	return nil
}

func (inst *Instance) internLocation(loc Location) (int, error) {
	if err := inst.checkIndexMode(loc.HasIndex); err != nil {
		return 0, err
	}
	idx := inst.registry.Intern(loc)
	if !inst.maxUsedIndexSet || idx > inst.maxUsedIndex {
		inst.maxUsedIndex = idx
		inst.maxUsedIndexSet = true
	}
	return idx, nil
}

func hasNonDefaultWindow(windows []TimeWindow) bool {
	for _, w := range windows {
		if !w.IsDefault() {
			return true
		}
	}
	return false
}

// AddJob ingests a standalone job. j.Kind must be JobSingle; use AddShipment
// for pickup/delivery pairs.
func (inst *Instance) AddJob(j Job) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if j.Kind != JobSingle {
		return apperror.New(apperror.CodeMalformedShipment, "AddJob requires a single job; use AddShipment for pickup/delivery pairs").
			WithField("kind")
	}
	if _, dup := inst.singleIDs[j.ID]; dup {
		return apperror.New(apperror.CodeDuplicateID, "duplicate single-job id").WithField("id").WithDetails("id", j.ID)
	}
	if err := inst.validateJobShape(&j); err != nil {
		return err
	}

	idx, err := inst.internLocation(j.Location)
	if err != nil {
		return err
	}
	j.locationIndex = idx

	inst.singleIDs[j.ID] = struct{}{}
	inst.jobs = append(inst.jobs, j)
	inst.hasJobs = true
	if hasNonDefaultWindow(j.TimeWindows) {
		inst.hasTW = true
	}
	return nil
}

func (inst *Instance) validateJobShape(j *Job) error {
	if len(j.PickupAmount) != inst.amountSize {
		return lengthMismatch("pickup_amount", len(j.PickupAmount), inst.amountSize)
	}
	if len(j.DeliveryAmount) != inst.amountSize {
		return lengthMismatch("delivery_amount", len(j.DeliveryAmount), inst.amountSize)
	}
	if err := inst.checkSkillMode(len(j.Skills) > 0); err != nil {
		return err
	}
	return nil
}

// AddShipment ingests a pickup/delivery pair. The pickup is appended
// immediately followed by the delivery, preserving the adjacency invariant
// the compatibility engine and solver rely on.
func (inst *Instance) AddShipment(s Shipment) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	p, d := s.Pickup, s.Delivery
	if p.Kind != JobPickup || d.Kind != JobDelivery {
		return apperror.New(apperror.CodeMalformedShipment, "shipment jobs must be kinds (pickup, delivery) in order")
	}
	if p.Priority != d.Priority {
		return apperror.New(apperror.CodeMalformedShipment, "shipment pickup and delivery must share a priority")
	}
	if !p.Skills.Equal(d.Skills) {
		return apperror.New(apperror.CodeMalformedShipment, "shipment pickup and delivery must share a skill set")
	}
	if len(p.PickupAmount) != len(d.DeliveryAmount) {
		return apperror.New(apperror.CodeMalformedShipment, "shipment pickup amount must equal delivery amount")
	}
	for i := range p.PickupAmount {
		if p.PickupAmount[i] != d.DeliveryAmount[i] {
			return apperror.New(apperror.CodeMalformedShipment, "shipment pickup amount must equal delivery amount").
				WithDetails("index", i)
		}
	}
	if _, dup := inst.pickupIDs[p.ID]; dup {
		return apperror.New(apperror.CodeDuplicateID, "duplicate pickup id").WithField("id").WithDetails("id", p.ID)
	}
	if _, dup := inst.deliveryIDs[d.ID]; dup {
		return apperror.New(apperror.CodeDuplicateID, "duplicate delivery id").WithField("id").WithDetails("id", d.ID)
	}

	if err := inst.validateJobShape(&p); err != nil {
		return err
	}
	if err := inst.validateJobShape(&d); err != nil {
		return err
	}

	pIdx, err := inst.internLocation(p.Location)
	if err != nil {
		return err
	}
	p.locationIndex = pIdx

	dIdx, err := inst.internLocation(d.Location)
	if err != nil {
		return err
	}
	d.locationIndex = dIdx

	inst.pickupIDs[p.ID] = struct{}{}
	inst.deliveryIDs[d.ID] = struct{}{}
	inst.jobs = append(inst.jobs, p, d)
	inst.hasJobs = true
	inst.hasShipments = true
	if hasNonDefaultWindow(p.TimeWindows) || hasNonDefaultWindow(d.TimeWindows) {
		inst.hasTW = true
	}
	return nil
}

// AddVehicle ingests a vehicle.
func (inst *Instance) AddVehicle(v Vehicle) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if len(v.Capacity) != inst.amountSize {
		return lengthMismatch("capacity", len(v.Capacity), inst.amountSize)
	}
	if err := inst.checkSkillMode(len(v.Skills) > 0); err != nil {
		return err
	}

	if v.Start != nil {
		if err := inst.checkIndexMode(v.Start.HasIndex); err != nil {
			return err
		}
	}
	if v.End != nil {
		if err := inst.checkIndexMode(v.End.HasIndex); err != nil {
			return err
		}
	}
	if v.Start != nil && v.End != nil && v.Start.HasIndex != v.End.HasIndex {
		return apperror.ErrMissingLocationIndex
	}

	if v.Start != nil {
		idx, err := inst.internLocation(*v.Start)
		if err != nil {
			return err
		}
		v.startIndex = &idx
	}
	if v.End != nil {
		idx, err := inst.internLocation(*v.End)
		if err != nil {
			return err
		}
		v.endIndex = &idx
	}

	inst.updateHomogeneity(&v)

	inst.vehicles = append(inst.vehicles, v)
	if !v.Window.IsDefault() {
		inst.hasTW = true
	}
	return nil
}

func (inst *Instance) updateHomogeneity(v *Vehicle) {
	if !inst.firstVehicleSeen {
		inst.firstVehicleSeen = true
		inst.firstStart = v.Start
		inst.firstEnd = v.End
		inst.firstProfile = v.Profile
		return
	}
	if !sameLocation(inst.firstStart, v.Start) || !sameLocation(inst.firstEnd, v.End) {
		inst.homogeneousLocations = false
	}
	if inst.firstProfile != v.Profile {
		inst.homogeneousProfiles = false
	}
}

func sameLocation(a, b *Location) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.HasIndex && b.HasIndex {
		return a.Index == b.Index
	}
	return a.Lon == b.Lon && a.Lat == b.Lat
}

// SetMatrix registers a user-supplied matrix for a profile, bypassing the
// matrix manager's routing-backend fetch for that profile.
func (inst *Instance) SetMatrix(profile string, m matrix.Matrix) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.userMatrices[profile] = m
}

// AmountSize returns the instance's fixed amount-vector dimensionality.
func (inst *Instance) AmountSize() int { return inst.amountSize }

// HasTW reports whether any job or vehicle carries a non-default time window.
func (inst *Instance) HasTW() bool { return inst.hasTW }

// HasSkills reports whether jobs and vehicles in this instance carry skill sets.
func (inst *Instance) HasSkills() bool { return inst.skillMode }

// HasCustomLocationIndex reports whether this instance uses the
// caller-supplied explicit index regime.
func (inst *Instance) HasCustomLocationIndex() bool { return inst.explicitMode }

// HasJobs reports whether any job (single or shipment half) was ingested.
func (inst *Instance) HasJobs() bool { return inst.hasJobs }

// HasShipments reports whether any shipment was ingested.
func (inst *Instance) HasShipments() bool { return inst.hasShipments }

// HomogeneousLocations reports whether every vehicle shares the same
// start/end locations.
func (inst *Instance) HomogeneousLocations() bool { return inst.homogeneousLocations }

// HomogeneousProfiles reports whether every vehicle shares the same routing profile.
func (inst *Instance) HomogeneousProfiles() bool { return inst.homogeneousProfiles }

// MaxMatricesUsedIndex returns the highest matrix index referenced by any
// job or vehicle, or -1 if none have been ingested.
func (inst *Instance) MaxMatricesUsedIndex() int {
	if !inst.maxUsedIndexSet {
		return -1
	}
	return inst.maxUsedIndex
}

// Jobs returns the job sequence in ingestion order; shipment halves are
// adjacent, pickup immediately followed by delivery.
func (inst *Instance) Jobs() []Job {
	out := make([]Job, len(inst.jobs))
	copy(out, inst.jobs)
	return out
}

// Vehicles returns the vehicle sequence in ingestion order.
func (inst *Instance) Vehicles() []Vehicle {
	out := make([]Vehicle, len(inst.vehicles))
	copy(out, inst.vehicles)
	return out
}

// Profiles returns the distinct routing profiles referenced by any vehicle.
func (inst *Instance) Profiles() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range inst.vehicles {
		if _, ok := seen[v.Profile]; !ok {
			seen[v.Profile] = struct{}{}
			out = append(out, v.Profile)
		}
	}
	return out
}

// Registry exposes the location registry, read-only, for C3 and C5.
func (inst *Instance) Registry() *Registry { return inst.registry }

// Snapshot is a read-only observability view of an instance's current
// state, for logging and debugging; nothing in Solve or Check consumes it.
type Snapshot struct {
	Jobs       int
	Vehicles   int
	Locations  int
	Profiles   []string
	HasTW      bool
	HasSkills  bool
	HasJobs    bool
	HasShipments bool
	HasCustomLocationIndex bool
	HomogeneousLocations   bool
	HomogeneousProfiles    bool
	MaxMatricesUsedIndex   int
}

// Describe returns a point-in-time snapshot of the instance for logging.
func (inst *Instance) Describe() Snapshot {
	locations := 0
	if inst.registry != nil {
		locations = inst.registry.Len()
	}
	return Snapshot{
		Jobs:                   len(inst.jobs),
		Vehicles:               len(inst.vehicles),
		Locations:              locations,
		Profiles:               inst.Profiles(),
		HasTW:                  inst.hasTW,
		HasSkills:              inst.skillMode,
		HasJobs:                inst.hasJobs,
		HasShipments:           inst.hasShipments,
		HasCustomLocationIndex: inst.explicitMode,
		HomogeneousLocations:   inst.homogeneousLocations,
		HomogeneousProfiles:    inst.homogeneousProfiles,
		MaxMatricesUsedIndex:   inst.MaxMatricesUsedIndex(),
	}
}

// AllLocationsHaveCoords reports whether every interned location carries
// coordinates, the precondition geometry enrichment requires.
func (inst *Instance) AllLocationsHaveCoords() bool {
	if inst.registry == nil {
		return true
	}
	for _, loc := range inst.registry.Locations() {
		if !loc.HasCoords {
			return false
		}
	}
	return true
}

// UserMatrices returns the matrices registered via SetMatrix, keyed by profile.
func (inst *Instance) UserMatrices() map[string]matrix.Matrix {
	out := make(map[string]matrix.Matrix, len(inst.userMatrices))
	for k, v := range inst.userMatrices {
		out[k] = v
	}
	return out
}
