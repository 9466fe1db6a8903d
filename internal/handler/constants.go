// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the public site, the
// auth flows, the JSON access API, and the admin panel.
package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixReorder is the suffix for reorder routes.
	RouteSuffixReorder = "/reorder"
	// RouteSuffixLogo is the suffix for logo upload routes.
	RouteSuffixLogo = "/logo"
	// RouteSuffixSuggest is the suffix for the AI draft route.
	RouteSuffixSuggest = "/suggest"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteSignup is the signup route.
	RouteSignup = "/signup"
	// RouteForgot is the password reset entry route.
	RouteForgot = "/forgot"
	// RouteUnlock is the access unlock page route.
	RouteUnlock = "/unlock"

	// RouteDeals is the deals admin route.
	RouteDeals = "/deals"
	// RouteUsers is the users admin route.
	RouteUsers = "/users"
	// RouteSettings is the settings admin route.
	RouteSettings = "/settings"
	// RouteEvents is the events admin route.
	RouteEvents = "/events"

	// RouteDealsID is the deals ID route pattern.
	RouteDealsID = RouteDeals + RouteParamID
	// RouteUsersID is the users ID route pattern.
	RouteUsersID = RouteUsers + RouteParamID
)

const (
	redirectAdmin         = "/admin"
	redirectAdminDeals    = redirectAdmin + RouteDeals
	redirectAdminDealsNew = redirectAdminDeals + RouteSuffixNew
	redirectAdminUsers    = redirectAdmin + RouteUsers
	redirectAdminUsersNew = redirectAdminUsers + RouteSuffixNew
	redirectAdminSettings = redirectAdmin + RouteSettings
	redirectLogin         = RouteLogin
	redirectForgot        = RouteForgot
	redirectUnlock        = RouteUnlock

	redirectAdminDealsID = redirectAdminDeals + "/%d"
	redirectAdminUsersID = redirectAdminUsers + "/%d"
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"
