// Package catalog persists episodes and their processing jobs in SQLite and
// exposes the transactional stage transitions the pipeline is built on.
//
// The Store manages the database connection, schema migrations, episode CRUD,
// and the three guarded transitions that drive a stage through its lifecycle:
// ClaimStage, MarkStageProcessing, and FinishStage. Each transition updates
// the job row and the episode's stage status column inside one transaction,
// so the two views of pipeline progress can never disagree.
//
// Episode stage columns are a projection of job history. Code outside this
// package never writes them directly; UpdateEpisode deliberately covers only
// the title and editor state.
package catalog
