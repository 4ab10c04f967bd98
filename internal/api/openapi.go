package api

import (
	"github.com/JaimeStill/pdfdesk/internal/config"
	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/openapi"
)

var (
	workspaceParam = openapi.PathParam("id", "Workspace ID")
	slotParam      = &openapi.Parameter{
		Name:        "slot",
		In:          "path",
		Required:    true,
		Description: "Upload slot ID",
		Schema:      &openapi.Schema{Type: "string", Format: "uuid"},
	}
)

// NewSpec describes the API routes registered by NewModule.
func NewSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.New(&cfg.API.OpenAPI, cfg.Version, cfg.API.BasePath)
	spec.Tag("Workspaces", "Per-page state: staged files, page order, selection and signature placement")
	spec.Tag("Tools", "Send a workspace to the PDF service")
	spec.Tag("Operations", "History of PDF service calls")

	spec.Components.AddSchemas(schemas())
	spec.Components.AddResponses(map[string]*openapi.Response{
		"Conflict":        openapi.ErrorResponse("A tool request is already running for the workspace"),
		"PayloadTooLarge": openapi.ErrorResponse("Upload exceeds the maximum size"),
		"Unprocessable":   openapi.ErrorResponse("The document could not be read"),
		"BadGateway":      openapi.ErrorResponse("The PDF service failed"),
	})

	spec.AddPaths(workspacePaths())
	spec.AddPaths(toolPaths())
	spec.AddPaths(operationPaths())

	return spec
}

func schemas() map[string]*openapi.Schema {
	toolNames := make([]any, 0, len(workspaces.Tools()))
	for _, t := range workspaces.Tools() {
		toolNames = append(toolNames, string(t))
	}

	pages := openapi.ArrayOf(&openapi.Schema{Type: "integer"})

	return map[string]*openapi.Schema{
		"Tool": {Type: "string", Enum: toolNames},
		"CreateWorkspace": {
			Type:       "object",
			Required:   []string{"tool"},
			Properties: map[string]*openapi.Schema{"tool": openapi.SchemaRef("Tool")},
		},
		"PageRequest": {
			Type:       "object",
			Required:   []string{"page"},
			Properties: map[string]*openapi.Schema{"page": {Type: "integer", Description: "1-indexed page"}},
		},
		"RemoteRequest": {
			Type:       "object",
			Required:   []string{"url"},
			Properties: map[string]*openapi.Schema{"url": {Type: "string", Format: "uri"}},
		},
		"PlacementEvent": {
			Type:     "object",
			Required: []string{"type"},
			Properties: map[string]*openapi.Schema{
				"type": {Type: "string", Enum: []any{
					"arm", "click", "start_drag", "drag_to", "end_drag",
					"start_resize", "resize_to", "end_resize",
				}},
				"container": {Type: "object", Description: "Container bounding box: left, top, width, height"},
				"pointer":   {Type: "object", Description: "Pointer position: x, y"},
				"page":      {Type: "integer"},
			},
		},
		"Workspace": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"tool":           openapi.SchemaRef("Tool"),
				"title":          {Type: "string"},
				"created_at":     {Type: "string", Format: "date-time"},
				"expires_at":     {Type: "string", Format: "date-time"},
				"revision":       {Type: "integer"},
				"busy":           {Type: "boolean"},
				"limits":         {Type: "object"},
				"files":          openapi.ArrayOf(&openapi.Schema{Type: "object"}),
				"document":       {Type: "object"},
				"page":           {Type: "integer"},
				"order":          pages,
				"dragging":       {Type: "integer"},
				"selection":      pages,
				"placement":      {Type: "object"},
				"region_visible": {Type: "boolean"},
				"signature":      {Type: "object"},
			},
		},
		"DropResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"moved":     {Type: "boolean"},
				"workspace": openapi.SchemaRef("Workspace"),
			},
		},
		"SignatureData": {
			Type:       "object",
			Required:   []string{"data"},
			Properties: map[string]*openapi.Schema{"data": {Type: "string", Description: "Image data URL"}},
		},
		"AddResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"accepted":   openapi.ArrayOf(&openapi.Schema{Type: "object"}),
				"rejected":   openapi.ArrayOf(&openapi.Schema{Type: "object"}),
				"dropped":    {Type: "integer"},
				"workspace":  openapi.SchemaRef("Workspace"),
				"page_error": {Type: "string"},
			},
		},
		"ToolOptions": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"ranges":          {Type: "string", Description: `Split ranges: "each", "1-3,5" or a JSON list of {start,end,name}`},
				"prefix":          {Type: "string", Description: "Split output name prefix"},
				"quality":         {Type: "string", Enum: []any{"low", "medium", "high"}},
				"output_filename": {Type: "string"},
			},
		},
		"Operation": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"workspace_id":    {Type: "string", Format: "uuid"},
				"tool":            {Type: "string"},
				"endpoint":        {Type: "string"},
				"input_files":     openapi.ArrayOf(&openapi.Schema{Type: "string"}),
				"output_filename": {Type: "string"},
				"status":          {Type: "string", Enum: []any{"succeeded", "failed"}},
				"error":           {Type: "string"},
				"bytes_out":       {Type: "integer"},
				"duration_ms":     {Type: "integer"},
				"created_at":      {Type: "string", Format: "date-time"},
			},
		},
		"OperationPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        openapi.ArrayOf(openapi.SchemaRef("Operation")),
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
				"has_more":    {Type: "boolean"},
			},
		},
	}
}

func workspaceOp(summary string, body *openapi.RequestBody, params ...*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:     summary,
		Tags:        []string{"Workspaces"},
		Parameters:  append([]*openapi.Parameter{workspaceParam}, params...),
		RequestBody: body,
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Workspace view", "Workspace"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	}
}

func multipartBody(fields ...string) *openapi.RequestBody {
	props := make(map[string]*openapi.Schema, len(fields))
	for _, f := range fields {
		props[f] = openapi.Binary()
	}
	return &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			"multipart/form-data": {Schema: openapi.Object(props, fields...)},
		},
	}
}

func workspacePaths() map[string]*openapi.PathItem {
	pageBody := openapi.RequestBodyJSON("PageRequest", true)

	addFiles := workspaceOp("Stage files", multipartBody("files"))
	addFiles.Responses[200] = openapi.ResponseJSON("Files accepted and rejected", "AddResult")
	addFiles.Responses[413] = openapi.ResponseRef("PayloadTooLarge")

	addRemote := workspaceOp("Stage a document from a URL", openapi.RequestBodyJSON("RemoteRequest", true))
	addRemote.Responses[200] = openapi.ResponseJSON("Document staged", "AddResult")
	addRemote.Responses[502] = openapi.ResponseRef("BadGateway")
	addRemote.Responses[413] = openapi.ResponseRef("PayloadTooLarge")

	loadDoc := workspaceOp("Count the pages of the staged document", nil)
	loadDoc.Responses[422] = openapi.ResponseRef("Unprocessable")

	closeOp := workspaceOp("Close the workspace and discard its files", nil)
	closeOp.Responses = map[int]*openapi.Response{
		204: {Description: "Closed"},
		404: openapi.ResponseRef("NotFound"),
	}

	preview := workspaceOp("Download the preview of a staged image", nil, slotParam)
	preview.Responses[200] = openapi.ResponseFile("PNG thumbnail", "image/png")

	dragOver := workspaceOp("Check whether the current drag may drop on a page", pageBody)
	dragOver.Responses[200] = &openapi.Response{
		Description: "Drop acceptance",
		Content: map[string]*openapi.MediaType{"application/json": {Schema: &openapi.Schema{
			Type:       "object",
			Properties: map[string]*openapi.Schema{"accepted": {Type: "boolean"}},
		}}},
	}

	drop := workspaceOp("Drop the dragged page before a page", pageBody)
	drop.Responses[200] = openapi.ResponseJSON("Drop outcome", "DropResult")

	signature := workspaceOp("Set the signature image", multipartBody("image"))
	signature.RequestBody.Content["application/json"] = &openapi.MediaType{Schema: openapi.SchemaRef("SignatureData")}
	signature.Responses[413] = openapi.ResponseRef("PayloadTooLarge")

	return map[string]*openapi.PathItem{
		"/workspaces": {
			Post: &openapi.Operation{
				Summary:     "Open a workspace for a tool page",
				Tags:        []string{"Workspaces"},
				RequestBody: openapi.RequestBodyJSON("CreateWorkspace", true),
				Responses: map[int]*openapi.Response{
					201: openapi.ResponseJSON("Workspace created", "Workspace"),
					400: openapi.ResponseRef("BadRequest"),
				},
			},
		},
		"/workspaces/{id}": {
			Get:    workspaceOp("Get the workspace view", nil),
			Delete: closeOp,
		},
		"/workspaces/{id}/files":                {Post: addFiles},
		"/workspaces/{id}/remote":               {Post: addRemote},
		"/workspaces/{id}/files/{slot}":         {Delete: workspaceOp("Remove a staged file", nil, slotParam)},
		"/workspaces/{id}/files/{slot}/preview": {Get: preview},
		"/workspaces/{id}/document":             {Post: loadDoc},
		"/workspaces/{id}/page":                 {Put: workspaceOp("Display a page", pageBody)},
		"/workspaces/{id}/drag":                 {Post: workspaceOp("Start dragging a page", pageBody)},
		"/workspaces/{id}/dragover":             {Post: dragOver},
		"/workspaces/{id}/drop":                 {Post: drop},
		"/workspaces/{id}/drag/end":             {Post: workspaceOp("End the current drag", nil)},
		"/workspaces/{id}/selection/toggle":     {Post: workspaceOp("Toggle a page", pageBody)},
		"/workspaces/{id}/selection/all":        {Post: workspaceOp("Select every page", nil)},
		"/workspaces/{id}/selection":            {Delete: workspaceOp("Clear the selection", nil)},
		"/workspaces/{id}/placement":            {Post: workspaceOp("Apply a placement event", openapi.RequestBodyJSON("PlacementEvent", true))},
		"/workspaces/{id}/signature": {
			Put:    signature,
			Delete: workspaceOp("Clear the signature", nil),
		},
	}
}

func toolPaths() map[string]*openapi.PathItem {
	return map[string]*openapi.PathItem{
		"/tools": {
			Get: &openapi.Operation{
				Summary: "List the tools",
				Tags:    []string{"Tools"},
				Responses: map[int]*openapi.Response{
					200: {Description: "Tools in menu order"},
				},
			},
		},
		"/tools/{tool}/{workspace}": {
			Post: &openapi.Operation{
				Summary:     "Run the tool on the workspace",
				Description: "Sends the staged files to the PDF service and returns the processed document as an attachment.",
				Tags:        []string{"Tools"},
				Parameters: []*openapi.Parameter{
					{Name: "tool", In: "path", Required: true, Schema: openapi.SchemaRef("Tool")},
					openapi.PathParam("workspace", "Workspace ID"),
				},
				RequestBody: openapi.RequestBodyJSON("ToolOptions", false),
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseFile("Processed document", "application/pdf", "application/zip"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
					409: openapi.ResponseRef("Conflict"),
					502: openapi.ResponseRef("BadGateway"),
					503: openapi.ResponseRef("Unavailable"),
				},
			},
		},
	}
}

func operationPaths() map[string]*openapi.PathItem {
	return map[string]*openapi.PathItem{
		"/operations": {
			Get: &openapi.Operation{
				Summary: "List recorded backend calls",
				Tags:    []string{"Operations"},
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "integer", "Page number"),
					openapi.QueryParam("page_size", "integer", "Results per page"),
					openapi.QueryParam("search", "string", "Search tool, output name and error"),
					openapi.QueryParam("sort", "string", "Comma-separated fields, - prefix for descending; default -created_at"),
					openapi.QueryParam("workspace_id", "string", "Filter by workspace"),
					openapi.QueryParam("tool", "string", "Filter by tool"),
					openapi.QueryParam("endpoint", "string", "Filter by backend endpoint"),
					openapi.QueryParam("status", "string", "Filter by outcome (succeeded or failed)"),
					openapi.QueryParam("output_filename", "string", "Filter by output name (contains)"),
					openapi.QueryParam("since", "string", "Created at or after (RFC 3339)"),
					openapi.QueryParam("until", "string", "Created before (RFC 3339)"),
				},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Page of operations", "OperationPage"),
					400: openapi.ResponseRef("BadRequest"),
					503: openapi.ResponseRef("Unavailable"),
				},
			},
		},
		"/operations/{id}": {
			Get: &openapi.Operation{
				Summary:    "Get a recorded backend call",
				Tags:       []string{"Operations"},
				Parameters: []*openapi.Parameter{openapi.PathParam("id", "Operation ID")},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Operation", "Operation"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
	}
}
