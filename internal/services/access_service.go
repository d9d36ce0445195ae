package services

import (
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/models"
	"github.com/tasktrack/tasktracker/internal/repository"
)

// AccessResolver computes which users' tasks a viewer may see.
type AccessResolver struct {
	userRepo repository.UserRepository
	breaker  *gobreaker.CircuitBreaker
}

// NewAccessResolver creates an AccessResolver whose directory lookups run
// behind a circuit breaker.
func NewAccessResolver(userRepo repository.UserRepository) *AccessResolver {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        constants.DirectoryBreakerName,
		MaxRequests: constants.DirectoryBreakerMaxRequests,
		Timeout:     constants.DirectoryBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > constants.DirectoryBreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("circuit breaker state changed")
		},
	})

	return &AccessResolver{
		userRepo: userRepo,
		breaker:  breaker,
	}
}

// Resolve returns the viewer's own id plus, for managers, the ids of their
// direct reports. Reports of reports are not included. When the directory
// lookup fails the result degrades to the viewer alone.
func (r *AccessResolver) Resolve(viewerID string, role models.Role) []string {
	if viewerID == "" {
		return []string{}
	}
	if !role.IsManager() {
		return []string{viewerID}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.userRepo.ListBySupervisor(viewerID)
	})
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{
			"viewer_id": viewerID,
			"error":     err.Error(),
		}).Warn("subordinate lookup failed, restricting access to self")
		return []string{viewerID}
	}

	reports, _ := result.([]models.User)
	ids := make([]string, 0, len(reports)+1)
	seen := map[string]struct{}{viewerID: {}}
	ids = append(ids, viewerID)
	for _, u := range reports {
		if _, dup := seen[u.ID]; dup || u.ID == "" {
			continue
		}
		seen[u.ID] = struct{}{}
		ids = append(ids, u.ID)
	}
	return ids
}
