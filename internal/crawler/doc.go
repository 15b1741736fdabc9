// Package crawler defines the types, collaborator interfaces, and small
// policies shared by the careers-page discovery pipeline.
package crawler
