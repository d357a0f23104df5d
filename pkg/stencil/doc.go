// Package stencil generates personalized word-processing documents from
// templates containing literal placeholders such as {COMPANY NAME}.
//
// A template is a .docx or .dotx package. Generating a document validates the
// request, copies the template to a fresh output file, replaces every
// placeholder in the copy and saves it, then optionally exports it to a
// fixed-layout format. The template itself is never modified.
//
// # Quick Start
//
//	engine := stencil.NewWithOptions(
//	    stencil.StaticSettings{
//	        TemplatesRoot: "/home/ada/templates",
//	        OutputRoot:    "/home/ada/letters",
//	        FirstName:     "Ada",
//	        LastName:      "Lovelace",
//	    },
//	    stencil.WithConfirmer(stencil.AutoConfirm),
//	)
//
//	result := engine.Generate(ctx, stencil.CoverLetterRequest{
//	    Template:    "engineering",
//	    Document:    "standard.docx",
//	    JobSource:   "LinkedIn",
//	    CompanyName: "Acme",
//	    JobTitle:    "Engineer",
//	})
//	if err := result.Err(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.OutputPath)
//	// /home/ada/letters/Acme/Engineer/Ada Lovelace Cover Letter.docx
//
// # Placeholders
//
// A placeholder is matched against the concatenated text of a paragraph, so
// it may be split across runs with different formatting. Every paragraph
// that contains a placeholder is collapsed into a single run carrying the
// formatting of its first run. All other paragraphs are written back byte
// for byte.
//
// The required placeholders are {JOB SOURCE}, {COMPANY NAME}, {FIRST NAME}
// and {LAST NAME}. {JOB TITLE} is substituted when present.
//
// # Errors
//
// Generate and Execute never return a bare error. The Result carries the
// final State, a list of fatal Issues and a separate list of Warnings. Each
// issue has an ErrorCategory (validation, collision, io, format, export).
// Result.Err returns a *GenerationError for callers that prefer errors.
//
// # Configuration
//
// The engine reads its configuration from COVERLETTER_* environment variables
// at start-up:
//
//	COVERLETTER_LOG_LEVEL              debug, info, warn, error or off
//	COVERLETTER_DOCUMENT_KIND          output file suffix, default "Cover Letter"
//	COVERLETTER_PACKAGE_EXTENSION      default ".docx"
//	COVERLETTER_REQUIRED_TOKENS        comma-separated placeholder list
//	COVERLETTER_EXPORT_ENABLED         export after saving
//	COVERLETTER_EXPORT_FORMAT          default "pdf"
//	COVERLETTER_EXPORT_CONVERTER_PATH  default "soffice"
//	COVERLETTER_EXPORT_TIMEOUT         default "2m"
//	COVERLETTER_CACHE_MAX_SIZE         templates whose placeholders are cached, 0 disables
//	COVERLETTER_CACHE_TTL              lifetime of a cached scan, 0 means unlimited
package stencil
