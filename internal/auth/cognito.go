// internal/auth/cognito.go
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
)

// TokenSet holds the tokens returned by a successful authentication.
type TokenSet struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int64
}

// IdentityProvider wraps the Cognito user pool operations the API needs.
type IdentityProvider struct {
	client       *cognitoidentityprovider.CognitoIdentityProvider
	userPoolID   string
	clientID     string
	clientSecret string
}

func NewIdentityProvider(region, userPoolID, clientID, clientSecret string) (*IdentityProvider, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &IdentityProvider{
		client:       cognitoidentityprovider.New(sess),
		userPoolID:   userPoolID,
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

// secretHash computes the SECRET_HASH Cognito requires when an app client
// has a secret: base64(HMAC-SHA256(username + clientID, clientSecret)).
func (p *IdentityProvider) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(p.clientSecret))
	mac.Write([]byte(username + p.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *IdentityProvider) SignUp(ctx context.Context, username, password, email string) (sub string, err error) {
	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(username),
		Password: aws.String(password),
		UserAttributes: []*cognitoidentityprovider.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	}
	if p.clientSecret != "" {
		input.SecretHash = aws.String(p.secretHash(username))
	}

	out, err := p.client.SignUpWithContext(ctx, input)
	if err != nil {
		return "", mapCognitoError(err)
	}
	return aws.StringValue(out.UserSub), nil
}

func (p *IdentityProvider) ConfirmSignUp(ctx context.Context, username, code string) error {
	input := &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
	}
	if p.clientSecret != "" {
		input.SecretHash = aws.String(p.secretHash(username))
	}
	_, err := p.client.ConfirmSignUpWithContext(ctx, input)
	return mapCognitoError(err)
}

func (p *IdentityProvider) Login(ctx context.Context, username, password string) (*TokenSet, error) {
	params := map[string]*string{
		"USERNAME": aws.String(username),
		"PASSWORD": aws.String(password),
	}
	if p.clientSecret != "" {
		params["SECRET_HASH"] = aws.String(p.secretHash(username))
	}

	out, err := p.client.InitiateAuthWithContext(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       aws.String(cognitoidentityprovider.AuthFlowTypeUserPasswordAuth),
		ClientId:       aws.String(p.clientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, mapCognitoError(err)
	}
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("%w: authentication challenge not supported", apperr.ErrUnauthenticated)
	}

	res := out.AuthenticationResult
	return &TokenSet{
		AccessToken:  aws.StringValue(res.AccessToken),
		IDToken:      aws.StringValue(res.IdToken),
		RefreshToken: aws.StringValue(res.RefreshToken),
		ExpiresIn:    aws.Int64Value(res.ExpiresIn),
	}, nil
}

func (p *IdentityProvider) ForgotPassword(ctx context.Context, username string) error {
	input := &cognitoidentityprovider.ForgotPasswordInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(username),
	}
	if p.clientSecret != "" {
		input.SecretHash = aws.String(p.secretHash(username))
	}
	_, err := p.client.ForgotPasswordWithContext(ctx, input)
	return mapCognitoError(err)
}

func (p *IdentityProvider) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	input := &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	}
	if p.clientSecret != "" {
		input.SecretHash = aws.String(p.secretHash(username))
	}
	_, err := p.client.ConfirmForgotPasswordWithContext(ctx, input)
	return mapCognitoError(err)
}

func (p *IdentityProvider) UpdateEmail(ctx context.Context, username, email string) error {
	_, err := p.client.AdminUpdateUserAttributesWithContext(ctx, &cognitoidentityprovider.AdminUpdateUserAttributesInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		UserAttributes: []*cognitoidentityprovider.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	})
	return mapCognitoError(err)
}

func (p *IdentityProvider) DeleteUser(ctx context.Context, username string) error {
	_, err := p.client.AdminDeleteUserWithContext(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	return mapCognitoError(err)
}

func mapCognitoError(err error) error {
	if err == nil {
		return nil
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}

	switch aerr.Code() {
	case cognitoidentityprovider.ErrCodeUsernameExistsException:
		return fmt.Errorf("%w: an account with that username already exists", apperr.ErrConflict)
	case cognitoidentityprovider.ErrCodeAliasExistsException:
		return fmt.Errorf("%w: an account with that email already exists", apperr.ErrConflict)
	case cognitoidentityprovider.ErrCodeInvalidPasswordException:
		return fmt.Errorf("%w: password does not meet the pool requirements", apperr.ErrValidation)
	case cognitoidentityprovider.ErrCodeInvalidParameterException:
		return fmt.Errorf("%w: %s", apperr.ErrValidation, aerr.Message())
	case cognitoidentityprovider.ErrCodeCodeMismatchException:
		return fmt.Errorf("%w: invalid confirmation code", apperr.ErrValidation)
	case cognitoidentityprovider.ErrCodeExpiredCodeException:
		return fmt.Errorf("%w: confirmation code has expired", apperr.ErrValidation)
	case cognitoidentityprovider.ErrCodeUserNotConfirmedException:
		return fmt.Errorf("%w: account is not confirmed yet", apperr.ErrForbidden)
	case cognitoidentityprovider.ErrCodeNotAuthorizedException:
		return fmt.Errorf("%w: incorrect username or password", apperr.ErrUnauthenticated)
	case cognitoidentityprovider.ErrCodeUserNotFoundException:
		return fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	case cognitoidentityprovider.ErrCodeLimitExceededException, cognitoidentityprovider.ErrCodeTooManyRequestsException:
		return fmt.Errorf("%w: too many attempts, try again later", apperr.ErrUpstream)
	default:
		return fmt.Errorf("%w: %s", apperr.ErrUpstream, aerr.Code())
	}
}
