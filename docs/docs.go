// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "email": "support@insta-lite.dev"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "User signup", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "User login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/profile": {"post": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Create profile", "responses": {"201": {"description": "Created"}}}},
        "/profile/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Current profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Update current profile", "responses": {"200": {"description": "OK"}}}
        },
        "/profile/{userId}": {"get": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Profile by user id", "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/follow/{userId}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["follow"], "summary": "Follow a user", "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["follow"], "summary": "Unfollow a user", "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/follow/followers/{userId}": {"get": {"security": [{"BearerAuth": []}], "tags": ["follow"], "summary": "List followers", "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/follow/following/{userId}": {"get": {"security": [{"BearerAuth": []}], "tags": ["follow"], "summary": "List followed users", "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/follow/stats/{userId}": {"get": {"security": [{"BearerAuth": []}], "tags": ["follow"], "summary": "Follower and following counts", "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/feed": {"get": {"security": [{"BearerAuth": []}], "tags": ["feed"], "summary": "Home feed", "description": "Photos from the caller and followed users, newest first. Page with next_cursor. next_cursor is an opaque base64url token of the last item's createdAt and id, so rows sharing a timestamp are not skipped. A bare ISO-8601 createdAt is still accepted as cursor.", "parameters": [{"type": "integer", "name": "limit", "in": "query"}, {"type": "string", "name": "cursor", "in": "query", "description": "next_cursor from the previous page, or an ISO-8601 createdAt"}, {"type": "integer", "name": "page", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/photos": {"get": {"security": [{"BearerAuth": []}], "tags": ["photos"], "summary": "Caller's photos", "responses": {"200": {"description": "OK"}}}},
        "/photos/upload": {"post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["photos"], "summary": "Upload a photo", "parameters": [{"type": "file", "name": "photo", "in": "formData", "required": true}, {"type": "string", "name": "description", "in": "formData"}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/photos/search": {"get": {"security": [{"BearerAuth": []}], "tags": ["photos"], "summary": "Search photos", "parameters": [{"type": "string", "name": "query", "in": "query"}, {"type": "string", "name": "hashtags", "in": "query"}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/photos/hashtags/popular": {"get": {"security": [{"BearerAuth": []}], "tags": ["photos"], "summary": "Most used hashtags", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/photos/interactions": {"post": {"security": [{"BearerAuth": []}], "tags": ["interactions"], "summary": "Interaction counts for many photos", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/photos/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["photos"], "summary": "Photo by id", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["photos"], "summary": "Delete own photo", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/photos/{id}/like": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["interactions"], "summary": "Like a photo", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["interactions"], "summary": "Remove a like", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/photos/{id}/comments": {"post": {"security": [{"BearerAuth": []}], "tags": ["interactions"], "summary": "Comment on a photo", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/photos/{id}/interactions": {"get": {"security": [{"BearerAuth": []}], "tags": ["interactions"], "summary": "Likes and comments of a photo", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/notifications": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "All notifications, newest first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Create a notification", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/notifications/unread": {"get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Unread notifications of a user", "parameters": [{"type": "integer", "name": "userId", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/notifications/mark-all-read": {"patch": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark every notification read", "responses": {"200": {"description": "OK"}}}},
        "/notifications/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Notification by id", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Patch a notification", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Delete a notification", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/notifications/{id}/read": {"patch": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark one notification read", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/feature-flags": {"get": {"security": [{"BearerAuth": []}], "tags": ["flags"], "summary": "Feature flags", "responses": {"200": {"description": "OK"}}}},
        "/ws": {"get": {"security": [{"BearerAuth": []}], "tags": ["realtime"], "summary": "Realtime events", "parameters": [{"type": "string", "name": "token", "in": "query"}], "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "insta-lite API",
	Description:      "Photo sharing API with follows, a fan-out feed, likes, comments and notifications",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
