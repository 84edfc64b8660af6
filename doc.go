// Package main provides the entry point for the OpenPulpit authorization
// service. It runs a web server using the Fiber framework that manages
// roles, the permission catalog and API credentials for a multi-tenant
// content platform, and answers permission queries through a REST API.
// The application uses gorm for data persistence and seeds an empty
// database with its initial roles, permissions and users on first start.
package main
