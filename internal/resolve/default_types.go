package resolve

// defaultComponentTypes maps "<ParentType>.<field>" to the component type an
// untyped mapping at that position is assumed to have.
var defaultComponentTypes = map[string]string{
	// AddFields
	"AddFields.fields": "AddedFieldDefinition",
	// CheckStream
	"CheckStream.dynamic_streams_check_configs": "DynamicStreamCheckConfig",
	// CompositeErrorHandler
	"CompositeErrorHandler.error_handlers": "DefaultErrorHandler",
	// CursorPagination
	"CursorPagination.decoder": "JsonDecoder",
	// DatetimeBasedCursor
	"DatetimeBasedCursor.end_datetime":      "MinMaxDatetime",
	"DatetimeBasedCursor.end_time_option":   "RequestOption",
	"DatetimeBasedCursor.start_datetime":    "MinMaxDatetime",
	"DatetimeBasedCursor.start_time_option": "RequestOption",
	// CustomIncrementalSync
	"CustomIncrementalSync.end_datetime":      "MinMaxDatetime",
	"CustomIncrementalSync.end_time_option":   "RequestOption",
	"CustomIncrementalSync.start_datetime":    "MinMaxDatetime",
	"CustomIncrementalSync.start_time_option": "RequestOption",
	// DeclarativeSource
	"DeclarativeSource.check":   "CheckStream",
	"DeclarativeSource.spec":    "Spec",
	"DeclarativeSource.streams": "DeclarativeStream",
	// DeclarativeStream
	"DeclarativeStream.retriever":     "SimpleRetriever",
	"DeclarativeStream.schema_loader": "JsonFileSchemaLoader",
	// DynamicDeclarativeStream
	"DynamicDeclarativeStream.stream_template":     "DeclarativeStream",
	"DynamicDeclarativeStream.components_resolver": "ConfigComponentsResolver",
	// HttpComponentsResolver
	"HttpComponentsResolver.retriever":          "SimpleRetriever",
	"HttpComponentsResolver.components_mapping": "ComponentMappingDefinition",
	// ConfigComponentsResolver
	"ConfigComponentsResolver.stream_config":      "StreamConfig",
	"ConfigComponentsResolver.components_mapping": "ComponentMappingDefinition",
	// DefaultErrorHandler
	"DefaultErrorHandler.response_filters": "HttpResponseFilter",
	// DefaultPaginator
	"DefaultPaginator.decoder":          "JsonDecoder",
	"DefaultPaginator.page_size_option": "RequestOption",
	// DpathExtractor
	"DpathExtractor.decoder": "JsonDecoder",
	// HttpRequester
	"HttpRequester.error_handler": "DefaultErrorHandler",
	// ListPartitionRouter
	"ListPartitionRouter.request_option": "RequestOption",
	// ParentStreamConfig
	"ParentStreamConfig.request_option": "RequestOption",
	"ParentStreamConfig.stream":         "DeclarativeStream",
	// RecordSelector
	"RecordSelector.extractor":     "DpathExtractor",
	"RecordSelector.record_filter": "RecordFilter",
	// SimpleRetriever
	"SimpleRetriever.paginator":       "NoPagination",
	"SimpleRetriever.record_selector": "RecordSelector",
	"SimpleRetriever.requester":       "HttpRequester",
	// SubstreamPartitionRouter
	"SubstreamPartitionRouter.parent_stream_configs": "ParentStreamConfig",
	// CustomPartitionRouter
	"CustomPartitionRouter.parent_stream_configs": "ParentStreamConfig",
	// DynamicSchemaLoader
	"DynamicSchemaLoader.retriever":              "SimpleRetriever",
	"DynamicSchemaLoader.schema_type_identifier": "SchemaTypeIdentifier",
	"SchemaTypeIdentifier.types_mapping":         "TypesMap",
	// SessionTokenAuthenticator
	"SessionTokenAuthenticator.login_requester": "HttpRequester",
	// AsyncRetriever
	"AsyncRetriever.creation_requester":        "HttpRequester",
	"AsyncRetriever.polling_requester":         "HttpRequester",
	"AsyncRetriever.download_requester":        "HttpRequester",
	"AsyncRetriever.status_extractor":          "DpathExtractor",
	"AsyncRetriever.download_target_extractor": "DpathExtractor",
}
