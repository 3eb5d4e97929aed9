/*
Package appraisalsdk is a Go client for the appraisal organization service.

It is organized around two types:

  - SDKClient: unauthenticated calls (health, JWKS, dev login)
  - Session: calls made on behalf of a signed-in user

Typical use against a dev deployment:

	client := appraisalsdk.NewSDKClient("http://localhost:8080")

	session, err := client.DevLogin(ctx, appraisalsdk.DevLoginRequest{Email: "val@example.com"})

	org, err := session.CreateOrganization(ctx, appraisalsdk.CreateOrganizationRequest{Name: "Harbour Valuations"})

	invite, err := session.CreateInvite(ctx, org.Organization.ID, appraisalsdk.CreateInviteRequest{
		Email: "new@example.com",
		Role:  "appraiser",
	})

Every failed call returns an *APIError carrying the envelope error code.
Compare with errors.Is against the exported sentinels:

	if errors.Is(err, appraisalsdk.ErrExpired) {
		// invitation already used or past its expiry
	}
*/
package appraisalsdk
