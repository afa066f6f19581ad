package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/shapemate-backend/internal/data/repos"
	types "github.com/yungbote/shapemate-backend/internal/domain"
	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
	"github.com/yungbote/shapemate-backend/internal/platform/dbctx"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// ProfileInput is the editable part of a user's profile. Zero values leave
// the stored field unchanged.
type ProfileInput struct {
	Age                 int      `json:"age"`
	Gender              string   `json:"gender"`
	WeightKg            float64  `json:"weight_kg"`
	HeightCm            float64  `json:"height_cm"`
	ActivityLevel       string   `json:"activity_level"`
	PrimaryGoal         string   `json:"primary_goal"`
	Budget              string   `json:"budget"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Allergies           []string `json:"allergies"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	GetProfile(ctx context.Context) (*types.UserProfile, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*types.UserProfile, error)
}

type userService struct {
	log         *logger.Logger
	userRepo    repos.UserRepo
	profileRepo repos.UserProfileRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo, profileRepo repos.UserProfileRepo) UserService {
	return &userService{
		log:         log.With("service", "UserService"),
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return us.loadUser(ctx, userID)
}

func (us *userService) loadUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	return users[0], nil
}

func (us *userService) GetProfile(ctx context.Context) (*types.UserProfile, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := us.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("profile_not_found", fmt.Errorf("profile not created yet"))
	}
	return p, nil
}

func (us *userService) UpdateProfile(ctx context.Context, in ProfileInput) (*types.UserProfile, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateProfileInput(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := us.profileRepo.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if row == nil {
		row = &types.UserProfile{UserID: userID}
	}
	mergeProfile(row, in)
	if err := us.profileRepo.Upsert(dbc, row); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	us.log.Info("Profile updated", "user_id", userID.String())
	return row, nil
}

func validateProfileInput(in ProfileInput) error {
	var bad []string
	if in.Age < 0 || in.Age > 120 {
		bad = append(bad, "age")
	}
	if in.WeightKg < 0 || in.WeightKg > 400 {
		bad = append(bad, "weight_kg")
	}
	if in.HeightCm < 0 || in.HeightCm > 260 {
		bad = append(bad, "height_cm")
	}
	if g := strings.TrimSpace(in.Gender); g != "" {
		if _, ok := calc.ParseGender(g); !ok {
			bad = append(bad, "gender")
		}
	}
	if len(bad) > 0 {
		return apierr.BadRequest("invalid_profile", fmt.Errorf("invalid fields: %s", strings.Join(bad, ", ")))
	}
	return nil
}

func mergeProfile(row *types.UserProfile, in ProfileInput) {
	if in.Age > 0 {
		row.Age = in.Age
	}
	if g, ok := calc.ParseGender(in.Gender); ok {
		row.Gender = string(g)
	}
	if in.WeightKg > 0 {
		row.WeightKg = in.WeightKg
	}
	if in.HeightCm > 0 {
		row.HeightCm = in.HeightCm
	}
	if a := strings.TrimSpace(in.ActivityLevel); a != "" {
		level, _, _ := calc.ResolveActivity(a)
		row.ActivityLevel = string(level)
	}
	if g := strings.TrimSpace(in.PrimaryGoal); g != "" {
		row.PrimaryGoal = string(calc.ParseObjective(g))
	}
	if b := strings.TrimSpace(in.Budget); b != "" {
		row.Budget = b
	}
	if in.DietaryRestrictions != nil {
		row.DietaryRestrictions = types.EncodeList(cleanList(in.DietaryRestrictions))
	}
	if in.Allergies != nil {
		row.Allergies = types.EncodeList(cleanList(in.Allergies))
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
