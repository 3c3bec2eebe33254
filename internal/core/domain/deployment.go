package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Deployment Status
// =============================================================================

type DeploymentStatus string

const (
	StatusPending           DeploymentStatus = "pending"
	StatusResolvingIdentity DeploymentStatus = "resolving_identity"
	StatusUploading         DeploymentStatus = "uploading"
	StatusBuilding          DeploymentStatus = "building"
	StatusLive              DeploymentStatus = "live"
	StatusFailed            DeploymentStatus = "failed"
	StatusCanceled          DeploymentStatus = "canceled"
)

// =============================================================================
// Deployment
// =============================================================================

// Deployment tracks one publish request from Pending to a terminal state.
type Deployment struct {
	ID                   string           `json:"id"`
	Platform             string           `json:"platform"`
	Name                 string           `json:"name"`
	Status               DeploymentStatus `json:"status"`
	PlatformDeploymentID string           `json:"platform_deployment_id,omitempty"`
	URL                  string           `json:"url,omitempty"`
	ErrorDetail          string           `json:"error_detail,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// NewDeployment creates a pending deployment for a platform.
func NewDeployment(platformID, name string) *Deployment {
	now := time.Now().UTC()
	return &Deployment{
		ID:        uuid.New().String(),
		Platform:  platformID,
		Name:      name,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition attempts to move the deployment to a new status.
func (d *Deployment) Transition(to DeploymentStatus) error {
	if err := ValidateTransition(d.Status, to); err != nil {
		return fmt.Errorf("%w: %s -> %s", err, d.Status, to)
	}
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail moves the deployment to failed with a human-readable detail.
func (d *Deployment) Fail(detail string) error {
	if err := d.Transition(StatusFailed); err != nil {
		return err
	}
	d.ErrorDetail = detail
	return nil
}

// Cancel moves the deployment to canceled. Cancellation is a distinct
// terminal state, never reported as a failure.
func (d *Deployment) Cancel() error {
	if err := d.Transition(StatusCanceled); err != nil {
		return err
	}
	d.ErrorDetail = "deployment canceled"
	return nil
}

// Terminal reports whether the deployment has reached a final state.
func (d *Deployment) Terminal() bool {
	return len(validTransitions[d.Status]) == 0
}

// Result produces the immutable terminal value returned to the caller.
func (d *Deployment) Result(duration time.Duration) *Result {
	return &Result{
		Status:               d.Status,
		Platform:             d.Platform,
		PlatformDeploymentID: d.PlatformDeploymentID,
		URL:                  d.URL,
		ErrorDetail:          d.ErrorDetail,
		Duration:             duration,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result is the terminal value of a deployment. Status is one of live,
// failed, or canceled. A failed result always carries ErrorDetail.
type Result struct {
	Status               DeploymentStatus `json:"status"`
	Platform             string           `json:"platform"`
	PlatformDeploymentID string           `json:"platform_deployment_id,omitempty"`
	URL                  string           `json:"url,omitempty"`
	ErrorDetail          string           `json:"error_detail,omitempty"`
	Duration             time.Duration    `json:"duration"`
}

// Live reports whether the deployment ended up serving traffic.
func (r *Result) Live() bool {
	return r.Status == StatusLive
}

// =============================================================================
// State Machine
// =============================================================================

// validTransitions defines the allowed state transitions. Identity
// resolution is skipped for platforms that do not require it, so Pending
// may move straight to Uploading.
var validTransitions = map[DeploymentStatus][]DeploymentStatus{
	StatusPending:           {StatusResolvingIdentity, StatusUploading, StatusFailed, StatusCanceled},
	StatusResolvingIdentity: {StatusUploading, StatusFailed, StatusCanceled},
	StatusUploading:         {StatusBuilding, StatusFailed, StatusCanceled},
	StatusBuilding:          {StatusLive, StatusFailed, StatusCanceled},
	StatusLive:              {},
	StatusFailed:            {},
	StatusCanceled:          {},
}

// ValidateTransition checks if a status transition is valid.
func ValidateTransition(from, to DeploymentStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}

	for _, s := range allowed {
		if s == to {
			return nil
		}
	}

	return ErrInvalidTransition
}

// =============================================================================
// Name Generation
// =============================================================================

// GenerateUniqueName appends a random hex suffix to a slugified base name.
// Platforms with a global site namespace (Netlify) need this to avoid name
// conflicts on repeat deploys.
func GenerateUniqueName(base string) string {
	suffix := make([]byte, 3)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%s", Slugify(base), hex.EncodeToString(suffix))
}
