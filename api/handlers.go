package api

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies) *routeHandlers {
	return &routeHandlers{
		postHandler:     newPostHandler(deps.Posts),
		categoryHandler: newCategoryHandler(deps.Categories),
		uploadHandler:   newUploadHandler(deps.Uploads),
		bookHandler:     newBookHandler(deps.Books),
		courseHandler:   newCourseHandler(deps.Courses),
		settingsHandler: newSettingsHandler(deps.Settings),
		publicHandler:   newPublicHandler(deps),
	}
}
