package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// GraphService maintains follow edges. An edge from A to B is recorded twice,
// as B in A.following and A in B.followers, and both records are written for
// every change. Changes to the same pair of users run one at a time.
type GraphService struct {
	users repositories.UserRepository
	locks *pairLocks
	log   logrus.FieldLogger
}

func NewGraphService(users repositories.UserRepository) *GraphService {
	return &GraphService{
		users: users,
		locks: newPairLocks(),
		log:   logrus.WithField("component", "graph"),
	}
}

// ToggleFollow follows targetID if actorID does not follow it yet and
// unfollows it otherwise.
func (s *GraphService) ToggleFollow(ctx context.Context, actorID, targetID primitive.ObjectID) (*models.FollowResult, error) {
	unlock := s.locks.lock(actorID, targetID)
	defer unlock()

	actor, target, err := s.load(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, target, !actor.IsFollowing(targetID))
}

// SetFollow drives the edge from actorID to targetID to the wanted state.
// Repeating a call with the same state is harmless, so clients that lost a
// response can retry it.
func (s *GraphService) SetFollow(ctx context.Context, actorID, targetID primitive.ObjectID, want bool) (*models.FollowResult, error) {
	unlock := s.locks.lock(actorID, targetID)
	defer unlock()

	actor, target, err := s.load(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, target, want)
}

func (s *GraphService) load(ctx context.Context, actorID, targetID primitive.ObjectID) (*models.User, *models.User, error) {
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if actorID == targetID {
		return nil, nil, apperror.ErrSelfFollowForbidden
	}
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

// apply writes both sides of the edge. The actor side goes first; if the
// target side cannot be written the actor side is put back to what it was.
// Both writes are set operations, so an edge left one-sided by an earlier
// failure is repaired by the next call. Callers hold the pair lock.
func (s *GraphService) apply(ctx context.Context, actor, target *models.User, want bool) (*models.FollowResult, error) {
	before := actor.IsFollowing(target.ID)

	var err error
	if want {
		_, err = s.users.AddFollowing(ctx, actor.ID, target.ID)
	} else {
		_, err = s.users.RemoveFollowing(ctx, actor.ID, target.ID)
	}
	if err != nil {
		return nil, err
	}

	var updated *models.User
	if want {
		updated, err = s.users.AddFollower(ctx, target.ID, actor.ID)
	} else {
		updated, err = s.users.RemoveFollower(ctx, target.ID, actor.ID)
	}
	if err != nil {
		s.rollback(ctx, actor.ID, target.ID, before, want)
		if apperror.KindOf(err) == apperror.Transient {
			return nil, err
		}
		return nil, apperror.ErrTransient.WithCause(err)
	}

	return s.settle(ctx, actor.ID, updated, want)
}

// settle re-reads the actor side after both writes. The pair lock only
// covers this process, so another instance may have flipped the actor side
// in between; the target side is then brought in line with it.
func (s *GraphService) settle(ctx context.Context, actorID primitive.ObjectID, target *models.User, want bool) (*models.FollowResult, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if following := actor.IsFollowing(target.ID); following != want {
		s.log.WithFields(logrus.Fields{
			"actor":  actorID.Hex(),
			"target": target.ID.Hex(),
		}).Warn("follow edge changed concurrently, aligning follower side")

		if following {
			target, err = s.users.AddFollower(ctx, target.ID, actorID)
		} else {
			target, err = s.users.RemoveFollower(ctx, target.ID, actorID)
		}
		if err != nil {
			return nil, apperror.ErrTransient.WithCause(err)
		}
		want = following
	}

	return &models.FollowResult{
		IsFollowing:    want,
		FollowersCount: len(target.Followers),
	}, nil
}

func (s *GraphService) rollback(ctx context.Context, actorID, targetID primitive.ObjectID, before, want bool) {
	if before == want {
		return
	}

	// The request context may already be done; the rollback still needs to run.
	ctx = context.WithoutCancel(ctx)

	var err error
	if before {
		_, err = s.users.AddFollowing(ctx, actorID, targetID)
	} else {
		_, err = s.users.RemoveFollowing(ctx, actorID, targetID)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"actor":  actorID.Hex(),
			"target": targetID.Hex(),
		}).Error("failed to roll back follow edge, edge is one-sided until the next follow call")
	}
}

// IsConnected reports whether a and b are the same user or either follows
// the other. Both documents are consulted, so the answer is the same for
// (a, b) and (b, a) even while an edge is recorded on one side only.
func (s *GraphService) IsConnected(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	if a == b {
		return true, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, []primitive.ObjectID{a, b})
	if err != nil {
		return false, err
	}

	for i := range users {
		other := b
		if users[i].ID == b {
			other = a
		}
		if users[i].IsFollowing(other) || users[i].HasFollower(other) {
			return true, nil
		}
	}
	return false, nil
}

// Summary returns the user's followers and followees.
func (s *GraphService) Summary(ctx context.Context, userID primitive.ObjectID) (followers, following []primitive.ObjectID, err error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user.Followers, user.Following, nil
}
