package utils

//RequestIDHeader carries the id tagging every log line of one request
const RequestIDHeader = "X-Request-ID"

//VideoExtensions are the upload extensions accepted for analysis
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

//ProcessedVideoExtension is the container the annotated renderer writes before any transcode
const ProcessedVideoExtension = ".avi"

//DirPermissions is used when creating the data directories on startup
const DirPermissions = 0766
