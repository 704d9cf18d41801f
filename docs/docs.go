// Package docs holds the swagger document registered with the swag runtime.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.LogInRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the token and user", "schema": {"$ref": "#/definitions/controllers.LogInSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create a new account",
                "parameters": [
                    {"description": "Account details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.SignUpRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created user", "schema": {"$ref": "#/definitions/controllers.SignUpSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (duplicate email)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "List event categories",
                "parameters": [
                    {"type": "boolean", "description": "Only active categories", "name": "active_only", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains the categories", "schema": {"$ref": "#/definitions/controllers.ListCategoriesSuccessResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Create an event category",
                "parameters": [
                    {"description": "Category details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateCategoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created category", "schema": {"$ref": "#/definitions/controllers.CategorySuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden (admin only)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/categories/{categoryID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Get a category by ID",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "categoryID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the category", "schema": {"$ref": "#/definitions/controllers.CategorySuccessResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Update an event category",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "categoryID", "in": "path", "required": true},
                    {"description": "Fields to update (all optional)", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateCategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated category", "schema": {"$ref": "#/definitions/controllers.CategorySuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden (admin only)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/contacts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "List the authenticated user's contacts",
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains contacts and pagination meta", "schema": {"$ref": "#/definitions/controllers.ListContactsSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Create an external contact",
                "parameters": [
                    {"description": "Contact details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateContactRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created contact", "schema": {"$ref": "#/definitions/controllers.ContactSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (duplicate email)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/contacts/{contactID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Get a contact by ID",
                "parameters": [
                    {"type": "string", "description": "Contact ID (UUID)", "name": "contactID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the contact", "schema": {"$ref": "#/definitions/controllers.ContactSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Update a contact",
                "parameters": [
                    {"type": "string", "description": "Contact ID (UUID)", "name": "contactID", "in": "path", "required": true},
                    {"description": "Fields to update (all optional)", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateContactRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated contact", "schema": {"$ref": "#/definitions/controllers.ContactSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List events",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "category_id", "in": "query"},
                    {"type": "string", "description": "Organizer user ID (matches owner or co-organizer)", "name": "organizer_id", "in": "query"},
                    {"type": "string", "description": "Event status (draft, published, cancelled, completed)", "name": "status", "in": "query"},
                    {"type": "boolean", "description": "Privacy filter", "name": "is_private", "in": "query"},
                    {"type": "string", "description": "RFC3339 lower bound on start time", "name": "starts_after", "in": "query"},
                    {"type": "string", "description": "RFC3339 upper bound on start time", "name": "starts_before", "in": "query"},
                    {"type": "string", "description": "Title substring (case insensitive)", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains events and pagination meta", "schema": {"$ref": "#/definitions/controllers.ListEventsSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Create a new event",
                "description": "Creates a Draft event owned by the authenticated user. The event must be published before it accepts registrations.",
                "parameters": [
                    {"description": "Event details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Get an event by ID",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Update an event",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"description": "Fields to update (all optional)", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Cancel an event",
                "description": "Cancels the event, cancels all active registrations, and sends cancellation notices. Only the organizer or a co-organizer may cancel.",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the cancelled event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (already terminal)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/invitations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "List an event's invitations",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains invitations and pagination meta", "schema": {"$ref": "#/definitions/controllers.ListInvitationsSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Invite someone to an event",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"description": "Invitee and delivery method", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.InviteRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created invitation", "schema": {"$ref": "#/definitions/controllers.InvitationSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (already invited)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/no-shows": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Mark no-shows for an ended event",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the number of registrations marked", "schema": {"$ref": "#/definitions/controllers.MarkNoShowsSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (event not ended)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/publish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Publish a draft event",
                "description": "Moves the event from Draft to Published, opening it for registration. Only the organizer or a co-organizer may publish.",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the published event", "schema": {"$ref": "#/definitions/controllers.EventSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (not in Draft)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/events/{eventID}/registrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "List an event's registrations",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"type": "string", "description": "Registration status filter", "name": "status", "in": "query"},
                    {"type": "string", "description": "Registration source filter", "name": "source", "in": "query"},
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "data contains registrations and pagination meta", "schema": {"$ref": "#/definitions/controllers.ListRegistrationsSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Register for an event",
                "parameters": [
                    {"type": "string", "description": "Event ID (UUID)", "name": "eventID", "in": "path", "required": true},
                    {"description": "Registrant and party details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.RegisterForEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the registration; status is registered or waitlisted", "schema": {"$ref": "#/definitions/controllers.RegistrationSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (full, or already registered)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "error.code: service_unavailable", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/invitations/{invitationID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Cancel an invitation",
                "parameters": [
                    {"type": "string", "description": "Invitation ID (UUID)", "name": "invitationID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the cancelled invitation", "schema": {"$ref": "#/definitions/controllers.InvitationSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (already terminal)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/invitations/{invitationID}/delivery": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Record a delivery event",
                "parameters": [
                    {"type": "string", "description": "Invitation ID (UUID)", "name": "invitationID", "in": "path", "required": true},
                    {"description": "New delivery status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.DeliveryEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated invitation", "schema": {"$ref": "#/definitions/controllers.InvitationSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (backward transition)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/registrations/{registrationID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Cancel a registration",
                "parameters": [
                    {"type": "string", "description": "Registration ID (UUID)", "name": "registrationID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the cancelled registration", "schema": {"$ref": "#/definitions/controllers.RegistrationSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (terminal status)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/registrations/{registrationID}/checkin": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Check in a registration",
                "parameters": [
                    {"type": "string", "description": "Registration ID (UUID)", "name": "registrationID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the checked-in registration", "schema": {"$ref": "#/definitions/controllers.RegistrationSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict (already checked in, or too early)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/rsvp/{token}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["invitations"],
                "summary": "Respond to an invitation (RSVP)",
                "parameters": [
                    {"type": "string", "description": "Invitation token", "name": "token", "in": "path", "required": true},
                    {"description": "Decision (accepted or declined)", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.RespondRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated invitation", "schema": {"$ref": "#/definitions/controllers.InvitationSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "410": {"description": "error.code: gone (expired or unknown token)", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Get the authenticated user",
                "responses": {
                    "200": {"description": "data contains the user", "schema": {"$ref": "#/definitions/controllers.SignUpSuccessResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Update the authenticated user's profile",
                "parameters": [
                    {"description": "Fields to update", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateMeRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated user", "schema": {"$ref": "#/definitions/controllers.SignUpSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.CategorySuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.EventCategory"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ContactSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.ExternalContact"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.CreateCategoryRequest": {
            "type": "object",
            "properties": {
                "color_hex": {"type": "string"},
                "description": {"type": "string"},
                "icon_name": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "controllers.CreateContactRequest": {
            "type": "object",
            "properties": {
                "company_name": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "notes": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "controllers.CreateEventRequest": {
            "type": "object",
            "properties": {
                "allow_guests": {"type": "boolean"},
                "allow_waitlist": {"type": "boolean"},
                "capacity": {"type": "integer"},
                "category_id": {"type": "string"},
                "description": {"type": "string"},
                "end_time": {"type": "string"},
                "is_private": {"type": "boolean"},
                "location": {"$ref": "#/definitions/domain.Location"},
                "max_guests_per_person": {"type": "integer"},
                "registration_closes": {"type": "string"},
                "registration_opens": {"type": "string"},
                "start_time": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "controllers.DeliveryEventRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            }
        },
        "controllers.EventSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.Event"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.InvitationSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.EventInvitation"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.InviteRequest": {
            "type": "object",
            "properties": {
                "contact_id": {"type": "string"},
                "email": {"type": "string"},
                "method": {"type": "string"},
                "name": {"type": "string"},
                "personal_message": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "controllers.ListCategoriesSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.EventCategory"}},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListContactsResponse": {
            "type": "object",
            "properties": {
                "contacts": {"type": "array", "items": {"$ref": "#/definitions/domain.ExternalContact"}},
                "meta": {"$ref": "#/definitions/helpers.PaginationMeta"}
            }
        },
        "controllers.ListContactsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/controllers.ListContactsResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListEventsResponse": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/domain.Event"}},
                "meta": {"$ref": "#/definitions/helpers.PaginationMeta"}
            }
        },
        "controllers.ListEventsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/controllers.ListEventsResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListInvitationsResponse": {
            "type": "object",
            "properties": {
                "invitations": {"type": "array", "items": {"$ref": "#/definitions/domain.EventInvitation"}},
                "meta": {"$ref": "#/definitions/helpers.PaginationMeta"}
            }
        },
        "controllers.ListInvitationsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/controllers.ListInvitationsResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.ListRegistrationsResponse": {
            "type": "object",
            "properties": {
                "meta": {"$ref": "#/definitions/helpers.PaginationMeta"},
                "registrations": {"type": "array", "items": {"$ref": "#/definitions/domain.EventRegistration"}}
            }
        },
        "controllers.ListRegistrationsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/controllers.ListRegistrationsResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.LogInRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "controllers.LogInResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "controllers.LogInSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/controllers.LogInResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.MarkNoShowsResponse": {
            "type": "object",
            "properties": {
                "marked": {"type": "integer"}
            }
        },
        "controllers.MarkNoShowsSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/controllers.MarkNoShowsResponse"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.RegisterForEventRequest": {
            "type": "object",
            "properties": {
                "company": {"type": "string"},
                "contact_id": {"type": "string"},
                "email": {"type": "string"},
                "guest_count": {"type": "integer"},
                "guest_names": {"type": "array", "items": {"type": "string"}},
                "invitation_id": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "special_needs": {"$ref": "#/definitions/domain.SpecialNeeds"}
            }
        },
        "controllers.RegistrationSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.EventRegistration"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.RespondRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string"}
            }
        },
        "controllers.SignUpRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "controllers.SignUpSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.User"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.UpdateCategoryRequest": {
            "type": "object",
            "properties": {
                "color_hex": {"type": "string"},
                "description": {"type": "string"},
                "icon_name": {"type": "string"},
                "is_active": {"type": "boolean"},
                "name": {"type": "string"}
            }
        },
        "controllers.UpdateContactRequest": {
            "type": "object",
            "properties": {
                "company_name": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "notes": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "controllers.UpdateEventRequest": {
            "type": "object",
            "properties": {
                "allow_guests": {"type": "boolean"},
                "allow_waitlist": {"type": "boolean"},
                "capacity": {"type": "integer"},
                "category_id": {"type": "string"},
                "clear_capacity": {"type": "boolean"},
                "co_organizers": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "end_time": {"type": "string"},
                "is_private": {"type": "boolean"},
                "location": {"$ref": "#/definitions/domain.Location"},
                "max_guests_per_person": {"type": "integer"},
                "registration_closes": {"type": "string"},
                "registration_opens": {"type": "string"},
                "start_time": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "controllers.UpdateMeRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "domain.Event": {
            "type": "object",
            "properties": {
                "allow_guests": {"type": "boolean"},
                "allow_waitlist": {"type": "boolean"},
                "capacity": {"type": "integer"},
                "category_id": {"type": "string"},
                "co_organizers": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "end_time": {"type": "string"},
                "id": {"type": "string"},
                "is_private": {"type": "boolean"},
                "location": {"$ref": "#/definitions/domain.Location"},
                "max_guests_per_person": {"type": "integer"},
                "organizer_id": {"type": "string"},
                "registration_closes": {"type": "string"},
                "registration_opens": {"type": "string"},
                "start_time": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.EventCategory": {
            "type": "object",
            "properties": {
                "color_hex": {"type": "string"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "icon_name": {"type": "string"},
                "id": {"type": "string"},
                "is_active": {"type": "boolean"},
                "name": {"type": "string"}
            }
        },
        "domain.EventInvitation": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "event_id": {"type": "string"},
                "expires_at": {"type": "string"},
                "id": {"type": "string"},
                "inviter_id": {"type": "string"},
                "method": {"type": "string"},
                "opened_at": {"type": "string"},
                "personal_message": {"type": "string"},
                "responded_at": {"type": "string"},
                "sent_at": {"type": "string"},
                "status": {"type": "string"},
                "target": {"$ref": "#/definitions/domain.InvitationTarget"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.EventRegistration": {
            "type": "object",
            "properties": {
                "cancelled_at": {"type": "string"},
                "checked_in_at": {"type": "string"},
                "created_at": {"type": "string"},
                "event_id": {"type": "string"},
                "guest_count": {"type": "integer"},
                "guest_names": {"type": "array", "items": {"type": "string"}},
                "id": {"type": "string"},
                "invitation_id": {"type": "string"},
                "registered_at": {"type": "string"},
                "registrant": {"$ref": "#/definitions/domain.RegistrantIdentity"},
                "source": {"type": "string"},
                "special_needs": {"$ref": "#/definitions/domain.SpecialNeeds"},
                "status": {"type": "string"},
                "updated_at": {"type": "string"},
                "waitlist_added_at": {"type": "string"},
                "waitlist_position": {"type": "integer"}
            }
        },
        "domain.ExternalContact": {
            "type": "object",
            "properties": {
                "company_name": {"type": "string"},
                "created_at": {"type": "string"},
                "created_by": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "notes": {"type": "string"},
                "phone": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.InvitationTarget": {
            "type": "object",
            "properties": {
                "contact_id": {"type": "string"},
                "email": {"type": "string"},
                "kind": {"type": "string"},
                "name": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "domain.Location": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "type": {"type": "string"},
                "virtual_link": {"type": "string"}
            }
        },
        "domain.RegistrantIdentity": {
            "type": "object",
            "properties": {
                "company": {"type": "string"},
                "contact_id": {"type": "string"},
                "email": {"type": "string"},
                "kind": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "domain.SpecialNeeds": {
            "type": "object",
            "properties": {
                "accessibility_needs": {"type": "string"},
                "dietary_restrictions": {"type": "string"},
                "special_requests": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "external_auth_id": {"type": "string"},
                "id": {"type": "string"},
                "is_active": {"type": "boolean"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "helpers.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "helpers.PaginationMeta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type \"Bearer\" followed by a space and the JWT token."
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Gatherly API",
	Description:      "Event management backend: events, invitations, registrations, and waitlists.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
