package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SitegenError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SitegenError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *SitegenError {
	return New(CategoryValidation, SeverityFatal, "validation failed: "+field+" "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Input errors abort the run.

func InputError(source string, cause error) *SitegenError {
	return Wrap(cause, CategoryInput, SeverityFatal, "reading site list failed").
		WithContext("source", source)
}

// Per-site errors

func FileSystemError(domain, operation string, cause error) *SitegenError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "filesystem operation failed").
		WithContext("domain", domain).
		WithContext("operation", operation)
}

func LaunchError(domain string, cause error) *SitegenError {
	return Wrap(cause, CategoryLaunch, SeverityWarning, "dev server launch failed").
		WithContext("domain", domain)
}

func DuplicateDomain(domain string, line int) *SitegenError {
	return New(CategoryInput, SeverityError, "duplicate domain in site list").
		WithContext("domain", domain).
		WithContext("line", line)
}

// Template acquisition

func TemplateCloneError(url string, cause error) *SitegenError {
	return Wrap(cause, CategoryGit, SeverityFatal, "template clone failed").
		WithContext("url", url)
}

func WorkspaceError(operation string, cause error) *SitegenError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *SitegenError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
