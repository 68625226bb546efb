package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	signInEndpoint = "/accounts:signInWithPassword"
	signUpEndpoint = "/accounts:signUp"
	oobEndpoint    = "/accounts:sendOobCode"
	documentPath   = "/projects/{project}/databases/(default)/documents/{collection}/{id}"
)

type FirebaseOptions struct {
	APIKey       string
	ProjectID    string
	AuthURL      string
	FirestoreURL string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Firebase talks to the Identity Toolkit and Firestore REST APIs.
type Firebase struct {
	auth      *resty.Client
	store     *resty.Client
	apiKey    string
	projectID string
	log       *zap.Logger
}

func NewFirebase(opts FirebaseOptions) *Firebase {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Firebase{
		auth:      newRESTClient(opts.AuthURL, opts.Timeout),
		store:     newRESTClient(opts.FirestoreURL, opts.Timeout),
		apiKey:    opts.APIKey,
		projectID: opts.ProjectID,
		log:       log,
	}
}

func newRESTClient(baseURL string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

type credentialRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type credentialResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type errorBody struct {
	Err struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (User, error) {
	return f.credential(ctx, signInEndpoint, email, password)
}

func (f *Firebase) CreateAccount(ctx context.Context, email, password string) (User, error) {
	return f.credential(ctx, signUpEndpoint, email, password)
}

func (f *Firebase) credential(ctx context.Context, endpoint, email, password string) (User, error) {
	var out credentialResponse
	var body errorBody
	resp, err := f.auth.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(credentialRequest{Email: email, Password: password, ReturnSecureToken: true}).
		SetResult(&out).
		SetError(&body).
		Post(endpoint)
	if err != nil {
		f.log.Warn("auth request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return User{}, &Error{Code: CodeNetwork, Err: err}
	}
	if resp.IsError() {
		return User{}, authError(resp.StatusCode(), body.Err.Message)
	}
	return User{
		ID:           out.LocalID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

func (f *Firebase) SendPasswordReset(ctx context.Context, email string) error {
	var body errorBody
	resp, err := f.auth.R().
		SetContext(ctx).
		SetQueryParam("key", f.apiKey).
		SetBody(oobRequest{RequestType: "PASSWORD_RESET", Email: email}).
		SetError(&body).
		Post(oobEndpoint)
	if err != nil {
		return &Error{Code: CodeNetwork, Err: err}
	}
	if resp.IsError() {
		return authError(resp.StatusCode(), body.Err.Message)
	}
	return nil
}

func (f *Firebase) WriteUserProfile(ctx context.Context, user User, p Profile) error {
	doc := map[string]any{
		"fields": map[string]any{
			"name":      stringValue(p.Name),
			"email":     stringValue(p.Email),
			"dob":       stringValue(p.DateOfBirth),
			"createdAt": stringValue(p.CreatedAt.UTC().Format(time.RFC3339Nano)),
		},
	}

	var body errorBody
	resp, err := f.store.R().
		SetContext(ctx).
		SetAuthToken(user.IDToken).
		SetPathParams(map[string]string{
			"project":    f.projectID,
			"collection": UsersCollection,
			"id":         user.ID,
		}).
		SetBody(doc).
		SetError(&body).
		Patch(documentPath)
	if err != nil {
		return &Error{Code: CodeNetwork, Err: err}
	}
	if resp.IsError() {
		code := CodeUnknown
		if resp.StatusCode() == http.StatusUnauthorized {
			code = CodeInvalidCredential
		}
		return &Error{Code: code, Message: body.Err.Message}
	}
	return nil
}

func stringValue(s string) map[string]string {
	return map[string]string{"stringValue": s}
}

// authError maps Identity Toolkit messages such as "EMAIL_NOT_FOUND" or
// "WEAK_PASSWORD : Password should be at least 6 characters" to a Code.
func authError(status int, message string) *Error {
	key := message
	if i := strings.IndexAny(key, " :"); i >= 0 {
		key = key[:i]
	}

	code := CodeUnknown
	switch key {
	case "EMAIL_NOT_FOUND":
		code = CodeUserNotFound
	case "INVALID_PASSWORD":
		code = CodeWrongPassword
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_ID_TOKEN":
		code = CodeInvalidCredential
	case "INVALID_EMAIL", "MISSING_EMAIL":
		code = CodeInvalidEmail
	case "WEAK_PASSWORD":
		code = CodeWeakPassword
	case "EMAIL_EXISTS":
		code = CodeEmailInUse
	default:
		if status >= http.StatusInternalServerError {
			code = CodeNetwork
		}
	}
	return &Error{Code: code, Message: message}
}
