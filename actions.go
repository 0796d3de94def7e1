package moviebot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goblincore/moviebot/internal/logging"
	"github.com/goblincore/moviebot/internal/metrics"
)

// Action names as registered with the dialogue manager.
const (
	ActionConfirmGenre               = "action_confirm_movie_genre"
	ActionMakeRecommendation         = "action_make_movie_recommendation"
	ActionCreateProfile              = "action_create_user_profile"
	ActionAccessProfile              = "action_access_user_profile"
	ActionIdentifyUser               = "user_identification"
	ActionPersonalizedRecommendation = "action_personalized_recommendation"
	ActionPersonalizedGenre          = "action_personalized_recommendation_genre"
	ActionGenerateText               = "action_generate_text"
	ActionUnlikelyIntent             = "action_unlikely_intent"
	ActionRestart                    = "action_restart"
	ActionSetNewUserProfileInfo      = "action_set_new_user_profile_info"
)

// Actions holds the collaborators shared by every handler. Handlers keep no
// per-conversation state.
type Actions struct {
	Store             ProfileStore
	Fetcher           *Fetcher
	Generator         Generator
	MaxOutputTokens   int
	StoreTimeout      time.Duration
	GenerationTimeout time.Duration
}

func (a *Actions) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.StoreTimeout)
}

// ConfirmGenre echoes the movie_genre slot back to the user.
func (a *Actions) ConfirmGenre(ctx context.Context, st *ConversationState) (Result, error) {
	genre, ok := st.SlotString(SlotMovieGenre)
	if !ok {
		return reply(msgGenreUnknown), &MissingSlotError{Slot: SlotMovieGenre}
	}
	return reply(fmt.Sprintf(msgGenreConfirmed, genre)), nil
}

// MakeRecommendation lists five scraped titles for the movie_genre slot.
func (a *Actions) MakeRecommendation(ctx context.Context, st *ConversationState) (Result, error) {
	genre, ok := st.SlotString(SlotMovieGenre)
	if !ok {
		return reply(msgNoRecommendations), &MissingSlotError{Slot: SlotMovieGenre}
	}

	titles, err := a.Fetcher.Fetch(ctx, NormalizeGenre(genre))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("genre", genre).Msg("candidate fetch failed")
		return reply(msgNoRecommendations), err
	}

	picks, err := SampleCandidates(titles, RecommendationCount)
	if err != nil {
		logging.Ctx(ctx).Info().Int("candidates", len(titles)).Str("genre", genre).Msg("not enough candidates")
		return reply(msgNoRecommendations), err
	}
	return reply(fmt.Sprintf(msgRecommendations, genre, strings.Join(picks, "\n- "))), nil
}

// CreateProfile writes the five profile slots for the sender. A bad age or
// email aborts without touching the store.
func (a *Actions) CreateProfile(ctx context.Context, st *ConversationState) (Result, error) {
	age, err := st.SlotInt(SlotAge)
	if err != nil {
		if errors.Is(err, ErrMissingSlot) {
			return reply(msgNeedAge), err
		}
		return reply(msgAgeNotNumber), &ValidationError{Field: SlotAge, Value: st.Slot(SlotAge), Reason: "not an integer"}
	}

	fields := ProfileFields{Age: age}
	fields.Name, _ = st.SlotString(SlotName)
	fields.LastName, _ = st.SlotString(SlotLastName)
	fields.Email, _ = st.SlotString(SlotEmail)
	fields.FavouriteGenre, _ = st.SlotString(SlotFavouriteGenre)

	candidate := Profile{UserID: st.SenderID}
	applyFields(&candidate, fields)
	if err := ValidateProfile(&candidate); err != nil {
		return reply(validationMessage(err)), err
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()
	p, err := a.Store.Upsert(sctx, st.SenderID, fields)
	if err != nil {
		return a.storeFailure(ctx, err)
	}
	logging.Ctx(ctx).Info().Str("user_id", st.SenderID).Str("profile_id", p.ID).Msg("profile saved")
	return Result{}, nil
}

// AccessProfile summarizes the sender's stored profile.
func (a *Actions) AccessProfile(ctx context.Context, st *ConversationState) (Result, error) {
	sctx, cancel := a.storeCtx(ctx)
	defer cancel()
	p, err := a.Store.FindByUserID(sctx, st.SenderID)
	if errors.Is(err, ErrProfileNotFound) {
		return reply(msgProfileNotFound), err
	}
	if err != nil {
		return a.storeFailure(ctx, err)
	}
	return reply(fmt.Sprintf(msgProfileSummary,
		orNA(p.Name), strconv.Itoa(p.Age), orNA(p.Email), orNA(p.FavouriteGenre))), nil
}

// IdentifyUser looks a returning user up by first and last name and loads
// their age and favourite genre into the conversation.
func (a *Actions) IdentifyUser(ctx context.Context, st *ConversationState) (Result, error) {
	name, ok := st.SlotString(SlotIDName)
	if !ok {
		return reply(msgNeedIdentity), &MissingSlotError{Slot: SlotIDName}
	}
	lastName, ok := st.SlotString(SlotIDLastName)
	if !ok {
		return reply(msgNeedIdentity), &MissingSlotError{Slot: SlotIDLastName}
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()
	p, err := a.Store.FindByName(sctx, strings.ToLower(name), strings.ToLower(lastName))
	if errors.Is(err, ErrProfileNotFound) {
		return reply(msgProfileNotFound), err
	}
	if err != nil {
		return a.storeFailure(ctx, err)
	}

	return reply(fmt.Sprintf(msgProfileFound, p.Name, p.LastName, p.ID),
		SlotSet(SlotUserProfileID, p.ID),
		SlotSet(SlotAge, p.Age),
		SlotSet(SlotFavouriteGenre, p.FavouriteGenre),
	), nil
}

// PersonalizedRecommendation asks the generator for titles matching the
// user's age and favourite genre.
func (a *Actions) PersonalizedRecommendation(ctx context.Context, st *ConversationState) (Result, error) {
	req, err := recommendationRequest(st, SlotFavouriteGenre)
	if err != nil {
		return reply(msgNeedAgeAndGenre), err
	}
	text, err := a.generate(ctx, req.Prompt())
	if err != nil {
		return reply(msgGenerationFailed), err
	}
	return reply(text), nil
}

// PersonalizedGenreRecommendation is PersonalizedRecommendation for the genre
// picked in this conversation, with the latest message passed along as an
// extra wish. It also stores the answer in generated_text.
func (a *Actions) PersonalizedGenreRecommendation(ctx context.Context, st *ConversationState) (Result, error) {
	req, err := recommendationRequest(st, SlotMovieGenre)
	if err != nil {
		return reply(msgNeedBothAgeAndGenre), err
	}
	req.FreeText = st.LatestMessage.Text
	text, err := a.generate(ctx, req.Prompt())
	if err != nil {
		return reply(msgGenerationFailed), err
	}
	return reply(text, SlotSet(SlotGeneratedText, text)), nil
}

func recommendationRequest(st *ConversationState, genreSlot string) (RecommendationRequest, error) {
	age, err := st.SlotInt(SlotAge)
	if err != nil {
		return RecommendationRequest{}, &MissingSlotError{Slot: SlotAge}
	}
	genre, ok := st.SlotString(genreSlot)
	if !ok {
		return RecommendationRequest{}, &MissingSlotError{Slot: genreSlot}
	}
	return RecommendationRequest{Genre: genre, Age: age}, nil
}

// GenerateText forwards the latest user message to the generator.
func (a *Actions) GenerateText(ctx context.Context, st *ConversationState) (Result, error) {
	prompt := strings.TrimSpace(st.LatestMessage.Text)
	if prompt == "" {
		return reply(msgNeedPrompt), &MissingSlotError{Slot: "text"}
	}
	text, err := a.generate(ctx, prompt)
	if err != nil {
		return reply(msgGenerationFailed), err
	}
	return reply(text, SlotSet(SlotGeneratedText, text)), nil
}

// UnlikelyIntent answers an intent the dialogue policy did not expect.
func (a *Actions) UnlikelyIntent(ctx context.Context, st *ConversationState) (Result, error) {
	return reply(IntentResponse(st.LatestMessage.Intent.Name)), nil
}

// Restart asks the dialogue manager to reset the conversation.
func (a *Actions) Restart(ctx context.Context, st *ConversationState) (Result, error) {
	return Result{Events: []Event{Restart()}}, nil
}

// SetNewUserProfileInfo stores the latest message as the new value of the
// profile field named by updating_field. updating_field is always cleared.
func (a *Actions) SetNewUserProfileInfo(ctx context.Context, st *ConversationState) (Result, error) {
	reset := SlotSet(SlotUpdatingField, nil)
	field, _ := st.SlotString(SlotUpdatingField)
	value := strings.TrimSpace(st.LatestMessage.Text)

	if !isUpdatableField(field) {
		return reply(msgUnknownField, reset), &ValidationError{Field: SlotUpdatingField, Value: field, Reason: "unknown field"}
	}
	if value == "" {
		return reply(msgNeedPrompt, reset), &MissingSlotError{Slot: "text"}
	}

	sctx, cancel := a.storeCtx(ctx)
	defer cancel()
	p, err := a.Store.FindByUserID(sctx, st.SenderID)
	if errors.Is(err, ErrProfileNotFound) {
		return reply(msgProfileNotFound, reset), err
	}
	if err != nil {
		res, err := a.storeFailure(ctx, err)
		res.Events = append(res.Events, reset)
		return res, err
	}

	var slotValue any = value
	var confirm string
	switch field {
	case SlotName:
		p.Name = value
		confirm = fmt.Sprintf("Great, your name is now '%s'.", value)
	case SlotLastName:
		p.LastName = value
		confirm = fmt.Sprintf("Great, your last name is now '%s'.", value)
	case SlotEmail:
		p.Email = value
		confirm = fmt.Sprintf("Great, your email is now '%s'.", value)
	case SlotFavouriteGenre:
		p.FavouriteGenre = value
		confirm = fmt.Sprintf("Great, your favourite movie genre is now '%s'.", value)
	case SlotAge:
		age, perr := strconv.Atoi(value)
		if perr != nil {
			return reply(msgAgeNotNumber, reset), &ValidationError{Field: SlotAge, Value: value, Reason: "not an integer"}
		}
		p.Age = age
		slotValue = age
		confirm = fmt.Sprintf("Your age has been updated to %d.", age)
	}

	if err := ValidateProfile(p); err != nil {
		return reply(validationMessage(err), reset), err
	}
	if _, err := a.Store.Upsert(sctx, st.SenderID, p.Fields()); err != nil {
		res, err := a.storeFailure(ctx, err)
		res.Events = append(res.Events, reset)
		return res, err
	}
	return reply(confirm, SlotSet(field, slotValue), reset), nil
}

func isUpdatableField(f string) bool {
	switch f {
	case SlotName, SlotLastName, SlotAge, SlotEmail, SlotFavouriteGenre:
		return true
	}
	return false
}

func (a *Actions) generate(ctx context.Context, prompt string) (string, error) {
	if a.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.GenerationTimeout)
		defer cancel()
	}
	text, err := a.Generator.Generate(ctx, prompt, a.MaxOutputTokens)
	if err != nil {
		kind := KindOf(err)
		metrics.ExternalFailures.WithLabelValues("generation", string(kind)).Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Msg("generation failed")
		return "", err
	}
	return text, nil
}

func (a *Actions) storeFailure(ctx context.Context, err error) (Result, error) {
	metrics.ExternalFailures.WithLabelValues("store", string(KindOf(err))).Inc()
	logging.Ctx(ctx).Error().Err(err).Msg("profile store failed")
	return reply(msgStoreFailed), external("store", err)
}

func applyFields(p *Profile, f ProfileFields) {
	p.Name, p.LastName, p.Age, p.Email, p.FavouriteGenre = f.Name, f.LastName, f.Age, f.Email, f.FavouriteGenre
}

func validationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Field {
		case SlotAge:
			return msgAgeOutOfRange
		case SlotEmail:
			return msgInvalidEmail
		}
	}
	return msgInvalidProfile
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
