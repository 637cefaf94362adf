package wizard

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"item-claim-system/models"
)

const (
	DefaultGameURL      = "https://www.roblox.com/games/142823291"
	DefaultSupportEmail = "support@mm2items.com"
	DefaultBotUsername  = "MM2Bot"
)

// Backend is what the wizard needs from the claim API.
type Backend interface {
	ValidateUsername(ctx context.Context, username string) (*models.ExternalProfile, error)
	GetUser(ctx context.Context, username string) (*models.ExternalProfile, error)
	SubmitClaim(ctx context.Context, req models.ClaimRequest) (*models.Claim, error)
}

// Options are the deployment-specific parts of the flow. The server publishes them
// at /api/wizardConfig.
type Options struct {
	BotUsername  string `json:"botUsername"`
	GameURL      string `json:"gameUrl"`
	SupportEmail string `json:"supportEmail"`
}

// WithDefaults fills empty fields with the stock values.
func (o Options) WithDefaults() Options {
	if o.BotUsername == "" {
		o.BotUsername = DefaultBotUsername
	}
	if o.GameURL == "" {
		o.GameURL = DefaultGameURL
	}
	if o.SupportEmail == "" {
		o.SupportEmail = DefaultSupportEmail
	}
	return o
}

// Receipt is what the thank-you step shows.
type Receipt struct {
	Email          string
	OrderID        string
	RobloxUsername string
}

// Machine holds one user's progress through the wizard. It is not safe for
// concurrent use; each session owns its own Machine.
type Machine struct {
	backend Backend
	opts    Options

	step    Step
	form    models.ClaimFormInput
	profile *models.ExternalProfile
	claim   *models.Claim
	bot     *models.ExternalProfile
}

func New(backend Backend, opts Options) *Machine {
	return &Machine{backend: backend, opts: opts.WithDefaults(), step: StepForm}
}

func (m *Machine) Step() Step { return m.step }

func (m *Machine) Progress() (current, total int) { return Progress(m.step) }

// Form returns the last submitted form values, kept across GoBack for pre-filling.
func (m *Machine) Form() models.ClaimFormInput { return m.form }

func (m *Machine) Profile() *models.ExternalProfile { return m.profile }

func (m *Machine) Claim() *models.Claim { return m.claim }

func (m *Machine) fire(event Event) error {
	next, err := Next(m.step, event)
	if err != nil {
		return err
	}
	m.step = next
	return nil
}

func (m *Machine) allowed(event Event) error {
	_, err := Next(m.step, event)
	return err
}

// Submit validates the form locally and moves to verification. No network calls.
// Resubmitting after GoBack always re-runs validation.
func (m *Machine) Submit(form models.ClaimFormInput) error {
	if err := m.allowed(EventFormSubmitted); err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}
	m.form = form
	m.profile = nil
	return m.fire(EventFormSubmitted)
}

// LoadProfile fetches the profile shown on the verification step.
func (m *Machine) LoadProfile(ctx context.Context) (*models.ExternalProfile, error) {
	if m.step != StepVerification {
		return nil, fmt.Errorf("%w: load profile on %s", ErrIllegalTransition, m.step)
	}
	profile, err := m.backend.ValidateUsername(ctx, m.form.RobloxUsername)
	if err != nil {
		return nil, err
	}
	m.profile = profile
	return profile, nil
}

// Confirm submits the claim. The step advances to attention only when both the
// lookup and the submission succeed; otherwise it stays on verification.
func (m *Machine) Confirm(ctx context.Context) error {
	if err := m.allowed(EventClaimAccepted); err != nil {
		return err
	}
	if m.profile == nil {
		if _, err := m.LoadProfile(ctx); err != nil {
			return err
		}
	}

	claim, err := m.backend.SubmitClaim(ctx, m.form.ToClaimRequest())
	if err != nil {
		return err
	}
	m.claim = claim
	return m.fire(EventClaimAccepted)
}

// GoBack returns to the form. Form values stay; the loaded profile is dropped.
func (m *Machine) GoBack() error {
	if err := m.fire(EventGoBack); err != nil {
		return err
	}
	m.profile = nil
	return nil
}

func (m *Machine) ChooseBot() error { return m.fire(EventChooseBot) }

func (m *Machine) ChooseServer() error { return m.fire(EventChooseServer) }

// BotProfile resolves the delivery bot's account, falling back to a placeholder
// when the lookup fails.
func (m *Machine) BotProfile(ctx context.Context) *models.ExternalProfile {
	if m.bot != nil {
		return m.bot
	}
	bot, err := m.backend.GetUser(ctx, m.opts.BotUsername)
	if err != nil || bot == nil {
		bot = &models.ExternalProfile{ID: 1, Name: m.opts.BotUsername}
	}
	m.bot = bot
	return bot
}

// SendFriendRequest finishes the bot path and returns the bot's profile URL.
func (m *Machine) SendFriendRequest(ctx context.Context) (string, error) {
	if err := m.allowed(EventFriendRequestSent); err != nil {
		return "", err
	}
	link := ProfileURL(m.BotProfile(ctx).ID)
	return link, m.fire(EventFriendRequestSent)
}

// JoinServer finishes the private-server path and returns the game URL.
func (m *Machine) JoinServer() (string, error) {
	if err := m.fire(EventServerJoined); err != nil {
		return "", err
	}
	return m.opts.GameURL, nil
}

// Receipt is available once the claim has been accepted.
func (m *Machine) Receipt() (Receipt, bool) {
	if m.claim == nil {
		return Receipt{}, false
	}
	return Receipt{
		Email:          m.claim.Email,
		OrderID:        m.claim.OrderID,
		RobloxUsername: m.claim.RobloxUsername,
	}, true
}

// SupportLink is a mailto link with the order id in the subject.
func (m *Machine) SupportLink() string {
	query := url.Values{"subject": {"Order Support - " + m.form.OrderID}}.Encode()
	// Mail clients don't decode '+' as a space in mailto headers.
	return "mailto:" + m.opts.SupportEmail + "?" + strings.ReplaceAll(query, "+", "%20")
}

func ProfileURL(userID int64) string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", userID)
}
