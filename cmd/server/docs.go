// Package main Velo Server API
//
//	@title						Velo Server API
//	@version					1.0
//	@description				Velo photo editing backend API
//
//	@contact.name				Velo Support
//	@contact.email				support@velo.app
//
//	@license.name				Proprietary
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Auth
//	@tag.description			Authentication endpoints
//
//	@tag.name					User
//	@tag.description			User profile management
//
//	@tag.name					Edit
//	@tag.description			Photo edit pipeline
//
//	@tag.name					Billing
//	@tag.description			Plans and subscriptions
//
//	@tag.name					Template
//	@tag.description			Prompt template catalog
package main
