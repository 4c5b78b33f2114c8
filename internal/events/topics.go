package events

const (
	// TopicControllerResetStarted is emitted when a full controller reset begins.
	TopicControllerResetStarted = "controller.reset.started"
	// TopicControllerResetFinished is emitted when a full controller reset ends.
	TopicControllerResetFinished = "controller.reset.finished"
	// TopicPublishResetFinished is emitted after publish run state was rebuilt.
	TopicPublishResetFinished = "publish.reset.finished"
	// TopicPluginsRefreshFinished is emitted after plugins were re-collected.
	TopicPluginsRefreshFinished = "plugins.refresh.finished"
	// TopicInstancesRefreshFinished is emitted after the instance set changed.
	TopicInstancesRefreshFinished = "instances.refresh.finished"

	// TopicProcessStarted is emitted when publishing starts or resumes.
	TopicProcessStarted = "publish.process.started"
	// TopicProcessStopped is emitted when publishing stops or pauses.
	TopicProcessStopped = "publish.process.stopped"
	// TopicPluginChanged is emitted before a new plugin starts processing.
	TopicPluginChanged = "publish.process.plugin.changed"
	// TopicInstanceChanged is emitted before a plugin processes an instance.
	TopicInstanceChanged = "publish.process.instance.changed"

	// TopicHasValidatedChanged tracks the one-way validation latch.
	TopicHasValidatedChanged = "publish.has_validated.changed"
	// TopicIsRunningChanged tracks the running flag.
	TopicIsRunningChanged = "publish.is_running.changed"
	// TopicHasCrashedChanged tracks the crashed flag.
	TopicHasCrashedChanged = "publish.has_crashed.changed"
	// TopicErrorMessageChanged tracks the headline error message.
	TopicErrorMessageChanged = "publish.publish_error.changed"
	// TopicHasValidationErrorsChanged tracks the non-specific error flag.
	TopicHasValidationErrorsChanged = "publish.has_validation_errors.changed"
	// TopicHasBlockingErrorsChanged tracks the blocking error flag.
	TopicHasBlockingErrorsChanged = "publish.has_validation_blocking_errors.changed"
	// TopicMaxProgressChanged tracks the progress ceiling.
	TopicMaxProgressChanged = "publish.max_progress.changed"
	// TopicProgressChanged tracks the progress value.
	TopicProgressChanged = "publish.progress.changed"
	// TopicFinishedChanged tracks the finished flag.
	TopicFinishedChanged = "publish.finished.changed"

	// TopicActionFailed is emitted when a manually triggered action fails.
	TopicActionFailed = "publish.action.failed"
	// TopicCardMessage requests a transient card message in the UI.
	TopicCardMessage = "show.card.message"

	// TopicInstanceCollectionFailed reports creator failures during instance reset.
	TopicInstanceCollectionFailed = "instances.collection.failed"
	// TopicInstancesCreateFailed reports creator failures during creation.
	TopicInstancesCreateFailed = "instances.create.failed"
	// TopicInstancesSaveFailed reports creator failures during save.
	TopicInstancesSaveFailed = "instances.save.failed"
	// TopicInstancesRemoveFailed reports creator failures during removal.
	TopicInstancesRemoveFailed = "instances.remove.failed"
	// TopicConvertorsFindFailed reports convertor discovery failures.
	TopicConvertorsFindFailed = "convertors.find.failed"
	// TopicConvertorsConvertFailed reports convertor run failures.
	TopicConvertorsConvertFailed = "convertors.convert.failed"
	// TopicThumbnailChanged is emitted when instance thumbnail paths change.
	TopicThumbnailChanged = "instance.thumbnail.changed"
)
