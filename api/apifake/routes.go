package apifake

import "net/http"

// Route keys, "<METHOD> <path>", used for fault injection and call counting.
const (
	RouteLogin         = http.MethodPost + " " + PathLogin
	RouteSocialLogin   = http.MethodPost + " " + PathSocialLogin
	RouteRegister      = http.MethodPost + " " + PathRegister
	RouteCheckEmail    = http.MethodPost + " " + PathCheckEmail
	RouteCheckName     = http.MethodPost + " " + PathCheckName
	RouteMe            = http.MethodGet + " " + PathMe
	RouteUpdateProfile = http.MethodPost + " " + PathUpdateProfile
	RouteDeactivate    = http.MethodPost + " " + PathDeactivate
	RouteCountries     = http.MethodGet + " " + PathCountries
)

const (
	PathLogin         = "/auth/login"
	PathSocialLogin   = "/auth/social-login"
	PathRegister      = "/auth/register"
	PathCheckEmail    = "/auth/check-email"
	PathCheckName     = "/auth/check-name"
	PathMe            = "/users/me"
	PathUpdateProfile = "/users/update-profile"
	PathDeactivate    = "/users/deactivate"
	PathCountries     = "/country/list"
)
