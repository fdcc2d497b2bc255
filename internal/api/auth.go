// Package api MSA (Microsoft Authentication) client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	msaDeviceCodeURL = "https://login.live.com/oauth20_connect.srf"
	msaTokenURL      = "https://login.live.com/oauth20_token.srf"
	xboxUserAuthURL  = "https://user.auth.xboxlive.com/user/authenticate"
	xstsAuthURL      = "https://xsts.auth.xboxlive.com/xsts/authorize"
	mcAuthURL        = "https://api.minecraftservices.com/authentication/login_with_xbox"
	mcProfileURL     = "https://api.minecraftservices.com/minecraft/profile"
	mcEntitlementURL = "https://api.minecraftservices.com/entitlements/mcstore"
)

// msaScope is the XBL scope used for both the device-code flow and the
// refresh flow.
const msaScope = "service::user.auth.xboxlive.com::MBI_SSL"

// AuthErrorKind classifies why a login attempt failed, per the auth
// error-kind policy.
type AuthErrorKind string

const (
	AuthDeviceCodeExpired AuthErrorKind = "device_code_expired"
	AuthUserDenied        AuthErrorKind = "user_denied"
	AuthNoMinecraft       AuthErrorKind = "no_minecraft_entitlement"
	AuthNetwork           AuthErrorKind = "network"
	AuthInvalidRefresh    AuthErrorKind = "invalid_refresh_token"
)

// AuthError wraps a login failure with its classification so callers can
// branch (e.g. invalid refresh token should fall back to interactive login;
// device code expired should just restart the flow) without string
// matching.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthClient handles Microsoft/Xbox/Minecraft authentication
type AuthClient struct {
	httpClient *http.Client
	clientID   string
}

func NewAuthClient(clientID string) *AuthClient {
	return &AuthClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clientID:   clientID,
	}
}

type DeviceCodeResponse struct {
	DeviceCode       string `json:"device_code"`
	UserCode         string `json:"user_code"`
	VerificationURI  string `json:"verification_uri"`
	ExpiresIn        int    `json:"expires_in"`
	Interval         int    `json:"interval"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type MSATokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type XboxAuthRequest struct {
	Properties   XboxAuthProperties `json:"Properties"`
	RelyingParty string             `json:"RelyingParty"`
	TokenType    string             `json:"TokenType"`
}

type XboxAuthProperties struct {
	AuthMethod string   `json:"AuthMethod,omitempty"`
	SiteName   string   `json:"SiteName,omitempty"`
	RpsTicket  string   `json:"RpsTicket,omitempty"`
	SandboxId  string   `json:"SandboxId,omitempty"`
	UserTokens []string `json:"UserTokens,omitempty"`
}

type XboxAuthResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

type MinecraftAuthRequest struct {
	IdentityToken string `json:"identityToken"`
}

type MinecraftAuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type MinecraftProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skins []struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		URL     string `json:"url"`
		Variant string `json:"variant"`
	} `json:"skins"`
}

type entitlementResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

// RequestDeviceCode initiates the device code flow. login.live.com has been
// observed to answer oauth20_connect.srf with either a JSON body or a
// application/x-www-form-urlencoded body depending on load balancer, so both
// are parsed before giving up.
func (c *AuthClient) RequestDeviceCode(ctx context.Context) (*DeviceCodeResponse, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"scope":         {msaScope},
		"response_type": {"device_code"},
	}
	req, _ := http.NewRequestWithContext(ctx, "POST", msaDeviceCodeURL, bytes.NewBufferString(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: AuthNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device code request failed: %s", string(body))
	}

	result, err := parseDeviceCodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("parsing device code response: %w (body: %s)", err, string(body))
	}
	if result.Error != "" {
		return nil, &AuthError{Kind: AuthNetwork, Err: fmt.Errorf("%s: %s", result.Error, result.ErrorDescription)}
	}
	if result.Interval == 0 {
		result.Interval = 5
	}
	return result, nil
}

// parseDeviceCodeBody tries JSON first, then falls back to treating body as
// a form-urlencoded key=value sequence.
func parseDeviceCodeBody(body []byte) (*DeviceCodeResponse, error) {
	var result DeviceCodeResponse
	if err := json.Unmarshal(body, &result); err == nil && (result.DeviceCode != "" || result.Error != "") {
		return &result, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	result = DeviceCodeResponse{
		DeviceCode:      values.Get("device_code"),
		UserCode:        values.Get("user_code"),
		VerificationURI: values.Get("verification_uri"),
		Message:         values.Get("message"),
		Error:           values.Get("error"),
	}
	if v := values.Get("expires_in"); v != "" {
		fmt.Sscanf(v, "%d", &result.ExpiresIn)
	}
	if v := values.Get("interval"); v != "" {
		fmt.Sscanf(v, "%d", &result.Interval)
	}
	if result.DeviceCode == "" && result.Error == "" {
		return nil, fmt.Errorf("unrecognized device code response format")
	}
	return &result, nil
}

// PollForToken polls Microsoft for the token after user authorizes. It
// honors the interval the server hands back and doubles it on slow_down,
// per the device-code polling contract.
func (c *AuthClient) PollForToken(ctx context.Context, dc *DeviceCodeResponse) (*MSATokenResponse, error) {
	data := url.Values{
		"client_id":   {c.clientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {dc.DeviceCode},
	}
	interval := time.Duration(dc.Interval) * time.Second
	if interval == 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		tok, pollErr := c.exchangeToken(ctx, data)
		if pollErr == nil {
			return tok, nil
		}
		switch {
		case pollErr == errAuthorizationPending:
			continue
		case pollErr == errSlowDown:
			interval *= 2
			continue
		default:
			return nil, pollErr
		}
	}
	return nil, &AuthError{Kind: AuthDeviceCodeExpired, Err: fmt.Errorf("timed out waiting for user authorization")}
}

var (
	errAuthorizationPending = fmt.Errorf("authorization_pending")
	errSlowDown             = fmt.Errorf("slow_down")
)

func (c *AuthClient) exchangeToken(ctx context.Context, data url.Values) (*MSATokenResponse, error) {
	req, _ := http.NewRequestWithContext(ctx, "POST", msaTokenURL, bytes.NewBufferString(data.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errAuthorizationPending // transient network blip, keep polling
	}
	defer resp.Body.Close()

	var result struct {
		MSATokenResponse
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&result)

	switch result.Error {
	case "":
		return &result.MSATokenResponse, nil
	case "authorization_pending":
		return nil, errAuthorizationPending
	case "slow_down":
		return nil, errSlowDown
	case "expired_token":
		return nil, &AuthError{Kind: AuthDeviceCodeExpired, Err: fmt.Errorf(result.Error)}
	case "access_denied":
		return nil, &AuthError{Kind: AuthUserDenied, Err: fmt.Errorf(result.Error)}
	default:
		return nil, fmt.Errorf("auth error: %s", result.Error)
	}
}

// RefreshToken exchanges a stored MSA refresh token for a fresh access
// token, reusing the same grant endpoint as the device-code flow.
func (c *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (*MSATokenResponse, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {msaScope},
	}
	tok, err := c.exchangeToken(ctx, data)
	if err != nil {
		if err == errAuthorizationPending || err == errSlowDown {
			return nil, &AuthError{Kind: AuthInvalidRefresh, Err: err}
		}
		var ae *AuthError
		if as, ok := err.(*AuthError); ok {
			ae = as
		}
		if ae != nil {
			return nil, &AuthError{Kind: AuthInvalidRefresh, Err: ae}
		}
		return nil, err
	}
	return tok, nil
}

// AuthenticateXbox exchanges MSA Access Token for Xbox Live Token
func (c *AuthClient) AuthenticateXbox(ctx context.Context, msaAccessToken string) (*XboxAuthResponse, error) {
	reqBody := XboxAuthRequest{
		Properties: XboxAuthProperties{
			AuthMethod: "RPS",
			SiteName:   "user.auth.xboxlive.com",
			RpsTicket:  "d=" + msaAccessToken,
		},
		RelyingParty: "http://auth.xboxlive.com",
		TokenType:    "JWT",
	}
	return c.doXboxRequest(ctx, xboxUserAuthURL, reqBody)
}

// AuthenticateXSTS exchanges Xbox Live Token for XSTS Token
func (c *AuthClient) AuthenticateXSTS(ctx context.Context, xboxToken string) (*XboxAuthResponse, error) {
	reqBody := XboxAuthRequest{
		Properties: XboxAuthProperties{
			SandboxId:  "RETAIL",
			UserTokens: []string{xboxToken},
		},
		RelyingParty: "rp://api.minecraftservices.com/",
		TokenType:    "JWT",
	}
	return c.doXboxRequest(ctx, xstsAuthURL, reqBody)
}

func (c *AuthClient) doXboxRequest(ctx context.Context, url string, body XboxAuthRequest) (*XboxAuthResponse, error) {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-xbl-contract-version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: AuthNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("xbox auth failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result XboxAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoginWithXbox exchanges XSTS Token and UHS for Minecraft Access Token
func (c *AuthClient) LoginWithXbox(ctx context.Context, uhs, xstsToken string) (*MinecraftAuthResponse, error) {
	reqBody := MinecraftAuthRequest{
		IdentityToken: fmt.Sprintf("XBL3.0 x=%s;%s", uhs, xstsToken),
	}
	jsonBody, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST", mcAuthURL, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: AuthNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("minecraft login failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result MinecraftAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckEntitlement verifies the account owns Minecraft: Java Edition.
// Returns an AuthError{Kind: AuthNoMinecraft} when the entitlement list is
// empty.
func (c *AuthClient) CheckEntitlement(ctx context.Context, accessToken string) error {
	req, _ := http.NewRequestWithContext(ctx, "GET", mcEntitlementURL, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &AuthError{Kind: AuthNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("entitlement check failed: %d", resp.StatusCode)
	}

	var result entitlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if len(result.Items) == 0 {
		return &AuthError{Kind: AuthNoMinecraft, Err: fmt.Errorf("account does not own Minecraft")}
	}
	return nil
}

// FetchProfile gets the Minecraft profile (uuid, name, skins)
func (c *AuthClient) FetchProfile(ctx context.Context, accessToken string) (*MinecraftProfile, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", mcProfileURL, nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: AuthNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile failed: %d", resp.StatusCode)
	}

	var result MinecraftProfile
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
